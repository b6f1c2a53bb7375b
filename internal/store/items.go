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

var _ slideshow.Backend = (*Store)(nil)

// ListItems returns every post of the family, newest first, with the
// viewer's slideshow reaction filled in.
func (s *Store) ListItems(ctx context.Context, familyID, viewerID string) ([]slideshow.Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.media_type, p.media_url, p.caption, p.username, p.avatar_url,
		       p.timestamp, p.is_favorite, COALESCE(r.emoji_type, '')
		FROM posts p
		LEFT JOIN reactions r
		  ON r.post_id = p.id AND r.user_id = $2 AND r.reaction_type = 'SLIDESHOW'
		WHERE p.family_id = $1
		ORDER BY p.timestamp DESC
	`, familyID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []slideshow.Item{}
	for rows.Next() {
		var (
			it          slideshow.Item
			kind, emoji string
		)
		if err := rows.Scan(&it.ID, &kind, &it.MediaURL, &it.Caption, &it.AuthorName,
			&it.AuthorAvatarURL, &it.CreatedAt, &it.Favorite, &emoji); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Kind = slideshow.MediaKind(kind)
		it.Reaction = slideshow.Reaction(emoji)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

type NewItem struct {
	FamilyID  string
	UserID    string
	Username  string
	AvatarURL string
	MediaURL  string
	Kind      slideshow.MediaKind
	Caption   string
	// CreatedAt defaults to now.
	CreatedAt time.Time
}

func (s *Store) CreateItem(ctx context.Context, in NewItem) (slideshow.Item, error) {
	if in.Kind == "" {
		in.Kind = slideshow.MediaImage
	}
	if in.Kind != slideshow.MediaImage && in.Kind != slideshow.MediaVideo {
		return slideshow.Item{}, fmt.Errorf("invalid media type %q", in.Kind)
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	it := slideshow.Item{
		ID:              uuid.NewString(),
		Kind:            in.Kind,
		MediaURL:        in.MediaURL,
		Caption:         in.Caption,
		AuthorName:      in.Username,
		AuthorAvatarURL: in.AvatarURL,
		CreatedAt:       in.CreatedAt,
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO posts (id, family_id, user_id, username, avatar_url, media_url, media_type, caption, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, it.ID, in.FamilyID, in.UserID, in.Username, in.AvatarURL, in.MediaURL, string(in.Kind), in.Caption, in.CreatedAt)
	if err != nil {
		return slideshow.Item{}, fmt.Errorf("create item: %w", err)
	}
	s.publish(ctx, realtime.ItemsChanged, in.FamilyID)
	return it, nil
}

func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	var familyID string
	err := s.db.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING family_id`, itemID).Scan(&familyID)
	if err != nil {
		return notFound(err)
	}
	s.publish(ctx, realtime.ItemsChanged, familyID)
	return nil
}

func (s *Store) SetFavorite(ctx context.Context, itemID string, favorite bool) error {
	var familyID string
	err := s.db.QueryRow(ctx, `
		UPDATE posts SET is_favorite = $2 WHERE id = $1 RETURNING family_id
	`, itemID, favorite).Scan(&familyID)
	if err != nil {
		return notFound(err)
	}
	s.publish(ctx, realtime.ItemsChanged, familyID)
	return nil
}

// SetReaction stores the viewer's slideshow reaction, replacing any
// earlier one on the same item.
func (s *Store) SetReaction(ctx context.Context, itemID, viewerID string, r slideshow.Reaction) error {
	var familyID string
	err := s.db.QueryRow(ctx, `SELECT family_id FROM posts WHERE id = $1`, itemID).Scan(&familyID)
	if err != nil {
		return notFound(err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO reactions (id, post_id, user_id, reaction_type, emoji_type)
		VALUES ($1, $2, $3, 'SLIDESHOW', $4)
		ON CONFLICT (post_id, user_id) WHERE reaction_type = 'SLIDESHOW'
		DO UPDATE SET emoji_type = EXCLUDED.emoji_type, created_at = now()
	`, uuid.NewString(), itemID, viewerID, string(r)); err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}
	s.publish(ctx, realtime.ItemsChanged, familyID)
	return nil
}

// Reaction returns the viewer's slideshow reaction, or "" when there is
// none.
func (s *Store) Reaction(ctx context.Context, itemID, viewerID string) (slideshow.Reaction, error) {
	var emoji string
	err := s.db.QueryRow(ctx, `
		SELECT emoji_type FROM reactions
		WHERE post_id = $1 AND user_id = $2 AND reaction_type = 'SLIDESHOW'
	`, itemID, viewerID).Scan(&emoji)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get reaction: %w", err)
	}
	return slideshow.Reaction(emoji), nil
}
