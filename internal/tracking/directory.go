package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blast/internal/shotdata"
)

var (
	_ shotdata.ArtistDirectory = (*Store)(nil)
	_ shotdata.ProjectInfo     = (*Store)(nil)
)

// PutArtist registers or replaces an artist's username.
func (s *Store) PutArtist(ctx context.Context, displayName, username string) error {
	if strings.TrimSpace(displayName) == "" || strings.TrimSpace(username) == "" {
		return errors.New("display name and username are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO artists (display_name, username) VALUES (?, ?)
         ON CONFLICT(display_name) DO UPDATE SET username = excluded.username`,
		displayName, username)
	if err != nil {
		return fmt.Errorf("put artist: %w", err)
	}
	return nil
}

func (s *Store) LookupUsername(ctx context.Context, displayName string) (string, bool, error) {
	var username string
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT username FROM artists WHERE display_name = ?", displayName).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup artist: %w", err)
	}
	return username, true, nil
}

// PutProject registers or replaces a project's frame rate.
func (s *Store) PutProject(ctx context.Context, name string, fps float64) error {
	if strings.TrimSpace(name) == "" || fps <= 0 {
		return errors.New("project name and a positive fps are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO projects (name, fps) VALUES (?, ?)
         ON CONFLICT(name) DO UPDATE SET fps = excluded.fps`,
		name, fps)
	if err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

func (s *Store) ProjectFPS(ctx context.Context, project string) (float64, bool, error) {
	var fps float64
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT fps FROM projects WHERE name = ?", project).Scan(&fps)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup project: %w", err)
	}
	return fps, true, nil
}

// Source binds the store to every shot data lookup contract.
func (s *Store) Source() shotdata.Source {
	return shotdata.Source{Versions: s, Artists: s, Projects: s}
}
