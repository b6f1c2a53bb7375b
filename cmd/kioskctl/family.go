package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
	"github.com/GillesGroulard/familisapp/internal/store"
)

func init() {
	familyCmd := &cobra.Command{
		Use:   "family",
		Short: "Manage families",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a family",
		Args:  cobra.ExactArgs(1),
		RunE:  runFamilyCreate,
	}
	createCmd.Flags().String("display-name", "", "Name shown on the kiosk (default: name)")

	familyCmd.AddCommand(createCmd, &cobra.Command{
		Use:   "list",
		Short: "List families",
		Args:  cobra.NoArgs,
		RunE:  runFamilyList,
	})

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change slideshow settings",
	}
	setCmd := &cobra.Command{
		Use:   "set <family-id>",
		Short: "Change slideshow settings",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsSet,
	}
	setCmd.Flags().Int("limit", 0, "Number of newest items shown")
	setCmd.Flags().Duration("speed", 0, "Time each item stays on screen, e.g. 15s")
	settingsCmd.AddCommand(setCmd, &cobra.Command{
		Use:   "show <family-id>",
		Short: "Show slideshow settings",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsShow,
	})

	rootCmd.AddCommand(familyCmd, settingsCmd)
}

func runFamilyCreate(cmd *cobra.Command, args []string) error {
	displayName, _ := cmd.Flags().GetString("display-name")
	if displayName == "" {
		displayName = args[0]
	}

	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	f, err := s.CreateFamily(cmd.Context(), args[0], displayName)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), f, func(w io.Writer) {
		fmt.Fprintf(w, "created family %s (join code %s)\n", f.ID, f.JoinCode)
	})
}

func runFamilyList(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	families, err := s.ListFamilies(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), families, func(w io.Writer) {
		printFamilies(w, families, time.Now())
	})
}

func printFamilies(w io.Writer, families []store.Family, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tJOIN CODE\tSLIDESHOW\tCREATED")
	for _, f := range families {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d items, %ds\t%s\n",
			f.ID, f.DisplayName, f.JoinCode, f.PhotoLimit, f.SpeedSecs,
			humanize.RelTime(f.CreatedAt, now, "ago", "from now"))
	}
	tw.Flush()
	fmt.Fprintf(w, "%s families\n", humanize.Comma(int64(len(families))))
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	st, err := s.Settings(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), st, func(w io.Writer) {
		fmt.Fprintln(w, describeSettings(st))
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	speed, _ := cmd.Flags().GetDuration("speed")
	if !cmd.Flags().Changed("limit") && !cmd.Flags().Changed("speed") {
		return fmt.Errorf("nothing to change: pass --limit and/or --speed")
	}

	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	st, err := s.Settings(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("limit") {
		st.DisplayLimit = limit
	}
	if cmd.Flags().Changed("speed") {
		st.Dwell = speed
	}
	if err := s.UpdateSettings(cmd.Context(), args[0], st); err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), st, func(w io.Writer) {
		fmt.Fprintln(w, describeSettings(st))
	})
}

func describeSettings(st slideshow.Settings) string {
	return fmt.Sprintf("newest %s items, %s each", humanize.Comma(int64(st.DisplayLimit)), st.Dwell)
}
