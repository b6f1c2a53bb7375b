package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
	"github.com/GillesGroulard/familisapp/internal/store"
)

func init() {
	reminderCmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage kiosk reminders",
	}

	addCmd := &cobra.Command{
		Use:   "add <family-id> <description>",
		Short: "Add a reminder",
		Args:  cobra.ExactArgs(2),
		RunE:  runReminderAdd,
	}
	addCmd.Flags().String("date", "", "Day of the reminder, YYYY-MM-DD (default: today)")
	addCmd.Flags().String("time", "", "Optional time of day, HH:MM")
	addCmd.Flags().String("audience", string(slideshow.AudienceElder), "ELDER or FAMILY")
	addCmd.Flags().String("repeat", string(slideshow.RecurNone), "NONE, DAILY, WEEKLY or MONTHLY")
	addCmd.Flags().Int("day", -1, "Weekday (0=Sunday) for WEEKLY, day of month for MONTHLY")
	addCmd.Flags().String("user-id", "kioskctl", "Author user id")

	reminderCmd.AddCommand(addCmd,
		&cobra.Command{
			Use:   "list <family-id>",
			Short: "List reminders",
			Args:  cobra.ExactArgs(1),
			RunE:  runReminderList,
		},
		&cobra.Command{
			Use:   "ack <reminder-id>",
			Short: "Acknowledge a reminder",
			Args:  cobra.ExactArgs(1),
			RunE:  runReminderAck,
		},
	)
	rootCmd.AddCommand(reminderCmd)
}

func runReminderAdd(cmd *cobra.Command, args []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	timeStr, _ := cmd.Flags().GetString("time")
	audience, _ := cmd.Flags().GetString("audience")
	repeat, _ := cmd.Flags().GetString("repeat")
	day, _ := cmd.Flags().GetInt("day")
	userID, _ := cmd.Flags().GetString("user-id")

	date := time.Now()
	if dateStr != "" {
		d, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", dateStr, err)
		}
		date = d
	}
	in := store.NewReminder{
		FamilyID:    args[0],
		UserID:      userID,
		Description: args[1],
		Date:        date,
		Audience:    slideshow.Audience(strings.ToUpper(audience)),
		Recurrence:  slideshow.Recurrence(strings.ToUpper(repeat)),
	}
	if timeStr != "" {
		in.Time = &timeStr
	}
	if cmd.Flags().Changed("day") {
		in.RecurrenceDay = &day
	}

	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	r, err := s.CreateReminder(cmd.Context(), in)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), r, func(w io.Writer) {
		fmt.Fprintf(w, "added reminder %s: %s\n", r.ID, schedule(r))
	})
}

func runReminderList(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	reminders, err := s.ListReminders(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), reminders, func(w io.Writer) {
		printReminders(w, reminders)
	})
}

func runReminderAck(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if err := s.AcknowledgeReminder(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "acknowledged %s\n", args[0])
	return nil
}

func printReminders(w io.Writer, reminders []slideshow.Reminder) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFOR\tWHEN\tDONE\tDESCRIPTION")
	for _, r := range reminders {
		done := ""
		if r.Acknowledged {
			done = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Audience, schedule(r), done, r.Description)
	}
	tw.Flush()
}

// schedule renders when a reminder shows, e.g. "every 15th from 2026-10-17".
func schedule(r slideshow.Reminder) string {
	at := ""
	if r.Time != nil {
		at = " at " + *r.Time
	}
	date := r.Date.Format(time.DateOnly)
	switch r.Recurrence {
	case slideshow.RecurDaily:
		return "daily" + at + " from " + date
	case slideshow.RecurWeekly:
		wd := r.Date.Weekday()
		if r.RecurrenceDay != nil && *r.RecurrenceDay >= 0 && *r.RecurrenceDay <= 6 {
			wd = time.Weekday(*r.RecurrenceDay)
		}
		return "every " + wd.String() + at + " from " + date
	case slideshow.RecurMonthly:
		day := r.Date.Day()
		if r.RecurrenceDay != nil && *r.RecurrenceDay > 0 {
			day = *r.RecurrenceDay
		}
		return "every " + humanize.Ordinal(day) + at + " from " + date
	default:
		return date + at
	}
}
