package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GillesGroulard/familisapp/internal/realtime"
)

var ErrNotFound = errors.New("not found")

// DB is the subset of *pgxpool.Pool the store needs. pgxmock pools and the
// hand-written mocks in tests implement it too.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Publisher announces writes. *realtime.ChangeFeed implements it.
type Publisher interface {
	Publish(ctx context.Context, ch realtime.Change) error
}

// Store is the Postgres-backed family data: items (posts), reactions,
// reminders and slideshow settings.
type Store struct {
	db  DB
	pub Publisher
	now func() time.Time
}

// New returns a Store. pub may be nil, in which case writes are not
// announced.
func New(db DB, pub Publisher) *Store {
	return &Store{db: db, pub: pub, now: time.Now}
}

func (s *Store) publish(ctx context.Context, typ, familyID string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, realtime.Change{Type: typ, FamilyID: familyID}); err != nil {
		log.Printf("slideshow-service: publish %s family=%s: %v", typ, familyID, err)
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
