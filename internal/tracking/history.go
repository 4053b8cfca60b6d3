package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History statuses.
const (
	StatusRendered   = "rendered"
	StatusTranscoded = "transcoded"
	StatusFailed     = "failed"
)

// HistoryEntry is one rendered format in the blast ledger.
type HistoryEntry struct {
	ID             int64
	RunID          string
	Comp           string
	Project        string
	Shot           string
	Asset          string
	Artist         string
	Format         string
	OutputPath     string
	CheckpointPath string
	FrameIn        int
	FrameOut       int
	Status         string
	ErrorMessage   string
	CreatedAt      time.Time
}

const historyColumns = "id, run_id, comp, project, shot, asset, artist, format, output_path, checkpoint_path, frame_in, frame_out, status, error_message, created_at"

// RecordBlast appends an entry to the ledger.
func (s *Store) RecordBlast(ctx context.Context, e HistoryEntry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO blast_history (
            run_id, comp, project, shot, asset, artist, format, output_path,
            checkpoint_path, frame_in, frame_out, status, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.Comp,
		nullableString(e.Project),
		nullableString(e.Shot),
		nullableString(e.Asset),
		nullableString(e.Artist),
		e.Format,
		e.OutputPath,
		nullableString(e.CheckpointPath),
		e.FrameIn,
		e.FrameOut,
		e.Status,
		nullableString(e.ErrorMessage),
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record blast: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit entries, newest first.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+historyColumns+" FROM blast_history ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e                                       HistoryEntry
			project, shot, asset, artist, ckpt, msg sql.NullString
			createdRaw                              string
		)
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.Comp, &project, &shot, &asset, &artist, &e.Format,
			&e.OutputPath, &ckpt, &e.FrameIn, &e.FrameOut, &e.Status, &msg, &createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Project, e.Shot, e.Asset, e.Artist = project.String, shot.String, asset.String, artist.String
		e.CheckpointPath, e.ErrorMessage = ckpt.String, msg.String
		if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
