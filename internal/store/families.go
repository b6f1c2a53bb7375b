package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

type Family struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	JoinCode    string    `json:"joinCode"`
	PhotoLimit  int       `json:"slideshowPhotoLimit"`
	SpeedSecs   int       `json:"slideshowSpeed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Store) CreateFamily(ctx context.Context, name, displayName string) (Family, error) {
	f := Family{
		ID:          uuid.NewString(),
		Name:        name,
		DisplayName: displayName,
		JoinCode:    strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO families (id, name, display_name, join_code)
		VALUES ($1, $2, $3, $4)
		RETURNING slideshow_photo_limit, slideshow_speed, created_at
	`, f.ID, f.Name, f.DisplayName, f.JoinCode).Scan(&f.PhotoLimit, &f.SpeedSecs, &f.CreatedAt)
	if err != nil {
		return Family{}, fmt.Errorf("create family: %w", err)
	}
	return f, nil
}

func (s *Store) ListFamilies(ctx context.Context) ([]Family, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, display_name, join_code, slideshow_photo_limit, slideshow_speed, created_at
		FROM families
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	families := []Family{}
	for rows.Next() {
		var f Family
		if err := rows.Scan(&f.ID, &f.Name, &f.DisplayName, &f.JoinCode, &f.PhotoLimit, &f.SpeedSecs, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

// Settings reads the family's slideshow knobs. Zero or negative columns are
// left for the caller to replace with defaults.
func (s *Store) Settings(ctx context.Context, familyID string) (slideshow.Settings, error) {
	var limit, speed int
	err := s.db.QueryRow(ctx, `
		SELECT slideshow_photo_limit, slideshow_speed FROM families WHERE id = $1
	`, familyID).Scan(&limit, &speed)
	if err != nil {
		return slideshow.Settings{}, notFound(err)
	}
	return slideshow.Settings{
		DisplayLimit: limit,
		Dwell:        time.Duration(speed) * time.Second,
	}, nil
}

func (s *Store) UpdateSettings(ctx context.Context, familyID string, st slideshow.Settings) error {
	if st.DisplayLimit <= 0 {
		return fmt.Errorf("photo limit must be positive, got %d", st.DisplayLimit)
	}
	if st.Dwell < time.Second {
		return fmt.Errorf("speed must be at least one second, got %s", st.Dwell)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE families SET slideshow_photo_limit = $2, slideshow_speed = $3 WHERE id = $1
	`, familyID, st.DisplayLimit, int(st.Dwell/time.Second))
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(ctx, realtime.SettingsChanged, familyID)
	return nil
}
