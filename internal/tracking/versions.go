package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blast/internal/shotdata"
)

var _ shotdata.Provider = (*Store)(nil)

const versionColumns = "id, project, entity, version_type, variation, status, number, path_to_movie, path_to_frames"

// AddVersion publishes a version record. When Number is zero the next
// number for the (project, entity, type, variation) tuple is assigned.
func (s *Store) AddVersion(ctx context.Context, r shotdata.Record) (shotdata.Record, error) {
	if strings.TrimSpace(r.Project) == "" || strings.TrimSpace(r.Entity) == "" || strings.TrimSpace(r.VersionType) == "" {
		return shotdata.Record{}, errors.New("project, entity and version type are required")
	}
	if r.Number <= 0 {
		var maxNumber sql.NullInt64
		err := s.db.QueryRowContext(ensureContext(ctx),
			`SELECT MAX(number) FROM versions
             WHERE project = ? AND entity = ? AND version_type = ? AND variation = ?`,
			r.Project, r.Entity, r.VersionType, r.Variation,
		).Scan(&maxNumber)
		if err != nil {
			return shotdata.Record{}, fmt.Errorf("next version number: %w", err)
		}
		r.Number = int(maxNumber.Int64) + 1
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO versions (
            project, entity, version_type, variation, status, number,
            path_to_movie, path_to_frames, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Project,
		r.Entity,
		r.VersionType,
		r.Variation,
		r.Status,
		r.Number,
		nullableString(r.PathToMovie),
		nullableString(r.PathToFrames),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return shotdata.Record{}, fmt.Errorf("insert version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return shotdata.Record{}, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return r, nil
}

// FindLatestVersion returns the highest-numbered version matching q.
func (s *Store) FindLatestVersion(ctx context.Context, q shotdata.Query) (shotdata.Record, bool, error) {
	where, args := queryFilters(q)
	query := "SELECT " + versionColumns + " FROM versions" + where + " ORDER BY number DESC, id DESC LIMIT 1"

	var rec shotdata.Record
	err := retryOnBusy(ensureContext(ctx), func() error {
		row := s.db.QueryRowContext(ensureContext(ctx), query, args...)
		var scanErr error
		rec, scanErr = scanVersion(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return shotdata.Record{}, false, nil
	}
	if err != nil {
		return shotdata.Record{}, false, fmt.Errorf("find latest version: %w", err)
	}
	return rec, true, nil
}

// ListVersions returns every version matching q, newest first.
func (s *Store) ListVersions(ctx context.Context, q shotdata.Query) ([]shotdata.Record, error) {
	where, args := queryFilters(q)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+versionColumns+" FROM versions"+where+" ORDER BY project, entity, version_type, number DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []shotdata.Record
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func queryFilters(q shotdata.Query) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		clauses = append(clauses, column+" = ?")
		args = append(args, value)
	}
	add("project", q.Project)
	add("entity", q.Entity)
	add("version_type", q.VersionType)
	add("variation", q.Variation)
	add("status", q.Status)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanVersion(scanner interface{ Scan(dest ...any) error }) (shotdata.Record, error) {
	var (
		rec    shotdata.Record
		movie  sql.NullString
		frames sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Project,
		&rec.Entity,
		&rec.VersionType,
		&rec.Variation,
		&rec.Status,
		&rec.Number,
		&movie,
		&frames,
	); err != nil {
		return shotdata.Record{}, err
	}
	rec.PathToMovie = movie.String
	rec.PathToFrames = frames.String
	return rec, nil
}
