package store

import (
	"context"
	"log"
)

func AutoMigrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("migrate slideshow-service: %v", err)
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS families (
          id                    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          name                  TEXT NOT NULL,
          display_name          TEXT NOT NULL DEFAULT '',
          join_code             TEXT NOT NULL UNIQUE,
          slideshow_photo_limit INT NOT NULL DEFAULT 20,
          slideshow_speed       INT NOT NULL DEFAULT 15,
          created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS posts (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          family_id   uuid NOT NULL REFERENCES families(id) ON DELETE CASCADE,
          user_id     TEXT NOT NULL,
          username    TEXT NOT NULL DEFAULT '',
          avatar_url  TEXT NOT NULL DEFAULT '',
          media_url   TEXT NOT NULL,
          media_type  TEXT NOT NULL DEFAULT 'image' CHECK (media_type IN ('image', 'video')),
          caption     TEXT NOT NULL DEFAULT '',
          is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
          timestamp   TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_posts_family_timestamp
      ON posts(family_id, timestamp DESC)
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS reactions (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          post_id       uuid NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
          user_id       TEXT NOT NULL,
          reaction_type TEXT NOT NULL CHECK (reaction_type IN ('LIKE', 'COMMENT', 'SLIDESHOW')),
          emoji_type    TEXT NOT NULL DEFAULT '',
          comment       TEXT NOT NULL DEFAULT '',
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	// One slideshow reaction per viewer and post.
	if _, err := db.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_reactions_slideshow
      ON reactions(post_id, user_id) WHERE reaction_type = 'SLIDESHOW'
    `); err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS reminders (
          id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          family_id       uuid NOT NULL REFERENCES families(id) ON DELETE CASCADE,
          user_id         TEXT NOT NULL DEFAULT '',
          description     TEXT NOT NULL,
          date            DATE NOT NULL,
          time            TEXT,
          target_audience TEXT NOT NULL DEFAULT 'ELDER' CHECK (target_audience IN ('ELDER', 'FAMILY')),
          recurrence_type TEXT NOT NULL DEFAULT 'NONE',
          recurrence_day  INT,
          is_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
          created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	return nil
}
