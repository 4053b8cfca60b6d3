package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blast/internal/shotdata"
)

// Store reads published versions from a shared Postgres tracking database.
// It expects the versions, artists and projects tables of the SQLite store.
type Store struct {
	db *pgxpool.Pool
}

var (
	_ shotdata.Provider        = (*Store)(nil)
	_ shotdata.ArtistDirectory = (*Store)(nil)
	_ shotdata.ProjectInfo     = (*Store)(nil)
)

// New wraps an existing pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool for dsn and verifies the connection.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open tracking pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping tracking database: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s != nil && s.db != nil {
		s.db.Close()
	}
	return nil
}

// Source binds the store to every shot data lookup contract.
func (s *Store) Source() shotdata.Source {
	return shotdata.Source{Versions: s, Artists: s, Projects: s}
}

func (s *Store) FindLatestVersion(ctx context.Context, q shotdata.Query) (shotdata.Record, bool, error) {
	where, args := buildFilters(q)
	var (
		rec    shotdata.Record
		movie  *string
		frames *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, project, entity, version_type, variation, status, number, path_to_movie, path_to_frames
		FROM versions`+where+`
		ORDER BY number DESC, id DESC
		LIMIT 1
	`, args...).Scan(
		&rec.ID,
		&rec.Project,
		&rec.Entity,
		&rec.VersionType,
		&rec.Variation,
		&rec.Status,
		&rec.Number,
		&movie,
		&frames,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return shotdata.Record{}, false, nil
	}
	if err != nil {
		return shotdata.Record{}, false, fmt.Errorf("find latest version: %w", err)
	}
	if movie != nil {
		rec.PathToMovie = *movie
	}
	if frames != nil {
		rec.PathToFrames = *frames
	}
	return rec, true, nil
}

func (s *Store) LookupUsername(ctx context.Context, displayName string) (string, bool, error) {
	var username string
	err := s.db.QueryRow(ctx, `
		SELECT username FROM artists WHERE display_name=$1
	`, displayName).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup artist: %w", err)
	}
	return username, true, nil
}

func (s *Store) ProjectFPS(ctx context.Context, project string) (float64, bool, error) {
	var fps float64
	err := s.db.QueryRow(ctx, `
		SELECT fps FROM projects WHERE name=$1
	`, project).Scan(&fps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup project: %w", err)
	}
	return fps, fps > 0, nil
}

func buildFilters(q shotdata.Query) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, column+"=$"+strconv.Itoa(len(args)))
	}
	add("project", q.Project)
	add("entity", q.Entity)
	add("version_type", q.VersionType)
	add("variation", q.Variation)
	add("status", q.Status)
	if len(clauses) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(clauses, " AND "), args
}
