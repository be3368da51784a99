package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bettyarega/Flash-CDC/pkg/logging"
)

type offsetKey struct {
	clientID int64
	topic    string
}

type memOffset struct {
	replayB64 string
	commitTS  time.Time
}

// OffsetStore persists per-(client, topic) replay cursors. Every write also
// lands in an in-memory mirror so that a broken database connection does not
// cost in-process resume positions.
type OffsetStore struct {
	db     *sql.DB
	schema string
	logger logging.Logger

	mu  sync.Mutex
	mem map[offsetKey]memOffset
}

func NewOffsetStore(db *sql.DB, logger logging.Logger) *OffsetStore {
	return &OffsetStore{
		db:     db,
		schema: schemaName(),
		logger: logger,
		mem:    make(map[offsetKey]memOffset),
	}
}

// EnsureSchema creates the offsets table when missing. Best-effort: callers
// treat a failure as non-fatal since the table is usually provisioned by the
// admin API migrations.
func (s *OffsetStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE SCHEMA IF NOT EXISTS `+s.schema+`;
		CREATE TABLE IF NOT EXISTS `+s.schema+`.listener_offsets (
			id BIGSERIAL PRIMARY KEY,
			client_id BIGINT NOT NULL,
			topic_name TEXT NOT NULL,
			last_replay_b64 TEXT,
			last_commit_ts TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (client_id, topic_name)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure offsets schema: %w", err)
	}
	return nil
}

// Load returns the stored replay id (base64) for a subscription, or "" when
// none is known. Falls back to the in-memory mirror when the database read
// fails.
func (s *OffsetStore) Load(ctx context.Context, clientID int64, topic string) (string, error) {
	var replayB64 sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT last_replay_b64
		FROM `+s.schema+`.listener_offsets
		WHERE client_id = $1 AND topic_name = $2
	`, clientID, topic).Scan(&replayB64)

	switch {
	case err == sql.ErrNoRows:
		return s.loadMemory(clientID, topic), nil
	case err != nil:
		s.logger.WithError(err).WithFields(logging.Fields{
			"client_id": clientID,
			"topic":     topic,
		}).Warn("Offset load failed; using in-memory value")
		return s.loadMemory(clientID, topic), nil
	}
	if !replayB64.Valid {
		return "", nil
	}
	return replayB64.String, nil
}

// Save upserts the replay cursor. The in-memory mirror is updated first so a
// durable-store outage still lets in-process reconnects resume correctly.
// commitMS of zero means the commit timestamp is unknown.
func (s *OffsetStore) Save(ctx context.Context, clientID int64, topic, replayB64 string, commitMS int64) error {
	var commitTS time.Time
	if commitMS > 0 {
		commitTS = time.UnixMilli(commitMS).UTC()
	}

	s.mu.Lock()
	s.mem[offsetKey{clientID, topic}] = memOffset{replayB64: replayB64, commitTS: commitTS}
	s.mu.Unlock()

	var commitArg interface{}
	if !commitTS.IsZero() {
		commitArg = commitTS
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.schema+`.listener_offsets (client_id, topic_name, last_replay_b64, last_commit_ts, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (client_id, topic_name)
		DO UPDATE SET last_replay_b64 = EXCLUDED.last_replay_b64,
		              last_commit_ts = EXCLUDED.last_commit_ts,
		              updated_at = now()
	`, clientID, topic, replayB64, commitArg)
	if err != nil {
		s.logger.WithError(err).WithFields(logging.Fields{
			"client_id": clientID,
			"topic":     topic,
		}).Warn("Offset save failed; kept in memory only")
	}
	return nil
}

// Clear forgets the cursor for a subscription in both stores.
func (s *OffsetStore) Clear(ctx context.Context, clientID int64, topic string) error {
	s.mu.Lock()
	delete(s.mem, offsetKey{clientID, topic})
	s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM `+s.schema+`.listener_offsets
		WHERE client_id = $1 AND topic_name = $2
	`, clientID, topic)
	if err != nil {
		return fmt.Errorf("clear offset for client %d topic %s: %w", clientID, topic, err)
	}
	return nil
}

func (s *OffsetStore) loadMemory(clientID int64, topic string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem[offsetKey{clientID, topic}].replayB64
}
