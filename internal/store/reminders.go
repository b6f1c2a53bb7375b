package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

const reminderColumns = `id, family_id, description, date, time, target_audience,
		       recurrence_type, recurrence_day, is_acknowledged, created_at`

func scanReminder(row pgx.Row) (slideshow.Reminder, error) {
	var (
		r                    slideshow.Reminder
		audience, recurrence string
	)
	err := row.Scan(&r.ID, &r.FamilyID, &r.Description, &r.Date, &r.Time, &audience,
		&recurrence, &r.RecurrenceDay, &r.Acknowledged, &r.CreatedAt)
	r.Audience = slideshow.Audience(audience)
	r.Recurrence = slideshow.Recurrence(recurrence)
	return r, err
}

func (s *Store) queryReminders(ctx context.Context, sql string, args ...any) ([]slideshow.Reminder, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []slideshow.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ActiveReminders returns the unacknowledged kiosk reminders for day,
// oldest first: one-off reminders dated day or later, and repeating ones
// whose current occurrence is due.
func (s *Store) ActiveReminders(ctx context.Context, familyID string, day time.Time) ([]slideshow.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE family_id = $1
		  AND is_acknowledged = FALSE
		  AND target_audience = 'ELDER'
		  AND ((recurrence_type = 'NONE' AND date >= $2)
		    OR (recurrence_type <> 'NONE' AND date <= $2))
		ORDER BY date ASC, created_at ASC
	`, familyID, day.Format(time.DateOnly))
}

func (s *Store) ListReminders(ctx context.Context, familyID string) ([]slideshow.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE family_id = $1
		ORDER BY date ASC, created_at ASC
	`, familyID)
}

// AcknowledgeReminder marks a one-off reminder as done. A recurring one is
// moved to its next occurrence after today, which keeps it out of
// ActiveReminders until that day.
func (s *Store) AcknowledgeReminder(ctx context.Context, reminderID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("acknowledge reminder: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		familyID   string
		date       time.Time
		recurrence string
		day        *int
	)
	err = tx.QueryRow(ctx, `
		SELECT family_id, date, recurrence_type, recurrence_day
		FROM reminders WHERE id = $1 FOR UPDATE
	`, reminderID).Scan(&familyID, &date, &recurrence, &day)
	if err != nil {
		return notFound(err)
	}

	if next, ok := NextOccurrence(date, slideshow.Recurrence(recurrence), day, s.now()); ok {
		_, err = tx.Exec(ctx, `UPDATE reminders SET date = $2 WHERE id = $1`, reminderID, next.Format(time.DateOnly))
	} else {
		_, err = tx.Exec(ctx, `UPDATE reminders SET is_acknowledged = TRUE WHERE id = $1`, reminderID)
	}
	if err != nil {
		return fmt.Errorf("acknowledge reminder: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("acknowledge reminder: commit: %w", err)
	}
	s.publish(ctx, realtime.RemindersChanged, familyID)
	return nil
}

type NewReminder struct {
	FamilyID    string
	UserID      string
	Description string
	Date        time.Time
	// Time is an optional "15:04" wall clock.
	Time          *string
	Audience      slideshow.Audience
	Recurrence    slideshow.Recurrence
	RecurrenceDay *int
}

var ErrInvalidReminder = errors.New("invalid reminder")

func (in *NewReminder) validate() error {
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidReminder)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidReminder)
	}
	if in.Time != nil {
		if _, err := time.Parse("15:04", *in.Time); err != nil {
			return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidReminder, *in.Time)
		}
	}
	switch in.Audience {
	case "":
		in.Audience = slideshow.AudienceElder
	case slideshow.AudienceElder, slideshow.AudienceFamily:
	default:
		return fmt.Errorf("%w: audience %q", ErrInvalidReminder, in.Audience)
	}
	switch in.Recurrence {
	case "":
		in.Recurrence = slideshow.RecurNone
	case slideshow.RecurNone, slideshow.RecurDaily, slideshow.RecurWeekly, slideshow.RecurMonthly:
	default:
		return fmt.Errorf("%w: recurrence %q", ErrInvalidReminder, in.Recurrence)
	}
	return nil
}

func (s *Store) CreateReminder(ctx context.Context, in NewReminder) (slideshow.Reminder, error) {
	if err := in.validate(); err != nil {
		return slideshow.Reminder{}, err
	}
	r := slideshow.Reminder{
		ID:            uuid.NewString(),
		FamilyID:      in.FamilyID,
		Description:   in.Description,
		Date:          time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC),
		Time:          in.Time,
		Audience:      in.Audience,
		Recurrence:    in.Recurrence,
		RecurrenceDay: in.RecurrenceDay,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO reminders (id, family_id, user_id, description, date, time,
		                       target_audience, recurrence_type, recurrence_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, r.ID, r.FamilyID, in.UserID, r.Description, r.Date.Format(time.DateOnly), r.Time,
		string(r.Audience), string(r.Recurrence), r.RecurrenceDay).Scan(&r.CreatedAt)
	if err != nil {
		return slideshow.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	s.publish(ctx, realtime.RemindersChanged, r.FamilyID)
	return r, nil
}
