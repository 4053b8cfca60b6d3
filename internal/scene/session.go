package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"blast/internal/logging"
	"blast/internal/services"
)

// State tracks where a session sits in the checkpoint protocol.
type State int

const (
	StateClosed State = iota
	StateMutated
	StateCommitted
	StateRendering
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateMutated:
		return "mutated"
	case StateCommitted:
		return "committed"
	case StateRendering:
		return "rendering"
	case StateRendered:
		return "rendered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session owns the open composition and enforces the checkpoint protocol:
// mutations are committed by save, close and reopen before any render.
type Session struct {
	adapter    Adapter
	logger     *slog.Logger
	state      State
	path       string
	checkpoint string
	lock       *flock.Flock
}

// OpenSession opens the composition at path.
func OpenSession(ctx context.Context, adapter Adapter, path string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := adapter.Open(ctx, path); err != nil {
		return nil, services.Wrap(services.ErrResource, "scene", "open", path, err)
	}
	return &Session{
		adapter: adapter,
		logger:  logging.NewComponentLogger(logger, "scene"),
		state:   StateMutated,
		path:    path,
	}, nil
}

// Adapter exposes the underlying engine for mutation.
func (s *Session) Adapter() Adapter { return s.adapter }

// State reports the current protocol state.
func (s *Session) State() State { return s.state }

// Path is the file the session was last opened from.
func (s *Session) Path() string { return s.path }

// Checkpoint saves the session to path, closes it and reopens it from path.
// The checkpoint file stays locked until Render finishes or Release is called.
func (s *Session) Checkpoint(ctx context.Context, path string) error {
	switch s.state {
	case StateClosed, StateRendering:
		return services.Wrap(services.ErrResource, "scene", "checkpoint", fmt.Sprintf("session is %s", s.state), nil)
	}
	s.state = StateMutated
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrResource, "scene", "checkpoint dir", filepath.Dir(path), err)
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrResource, "scene", "lock checkpoint", path, err)
	}
	if !locked {
		return services.Wrap(services.ErrResource, "scene", "lock checkpoint", fmt.Sprintf("%s is held by another blast", path), nil)
	}
	s.lock = lock

	if err := s.adapter.Save(ctx, path); err != nil {
		s.Release()
		return services.Wrap(services.ErrResource, "scene", "save", path, err)
	}
	if err := s.adapter.Close(); err != nil {
		s.Release()
		return services.Wrap(services.ErrResource, "scene", "close", path, err)
	}
	s.state = StateClosed
	if err := s.adapter.Open(ctx, path); err != nil {
		s.Release()
		return services.Wrap(services.ErrResource, "scene", "reopen", path, err)
	}
	s.path = path
	s.checkpoint = path
	s.state = StateCommitted
	s.logger.Debug("checkpoint committed", logging.String("checkpoint", path))
	return nil
}

// Render renders node over [start, end] at step. It is only legal after a
// successful Checkpoint.
func (s *Session) Render(ctx context.Context, node string, start, end, step int) error {
	if s.state != StateCommitted {
		return services.Wrap(services.ErrResource, "scene", "render", fmt.Sprintf("session is %s, want committed", s.state), nil)
	}
	defer s.Release()
	if !s.adapter.HasNode(node) {
		return services.Wrap(services.ErrConfiguration, "scene", "render", fmt.Sprintf("output node %q missing after reopen", node), ErrNodeNotFound)
	}
	s.state = StateRendering
	if err := s.adapter.Render(ctx, node, start, end, step); err != nil {
		s.state = StateCommitted
		return err
	}
	s.state = StateRendered
	return nil
}

// Release drops the checkpoint lock if one is held and removes its lock file.
func (s *Session) Release() {
	if s.lock == nil {
		return
	}
	lock := s.lock
	s.lock = nil
	if err := lock.Unlock(); err != nil {
		logging.WarnWithContext(s.logger, "checkpoint unlock failed", "checkpoint_unlock_failed",
			logging.String("checkpoint", s.checkpoint),
			logging.Error(err),
			logging.String(logging.FieldImpact, "lock file may block the next blast of this checkpoint"),
		)
		return
	}
	if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("checkpoint lock file not removed",
			logging.String("lock", lock.Path()),
			logging.Error(err),
		)
	}
}

// Finish saves the session to path and closes it.
func (s *Session) Finish(ctx context.Context, path string) error {
	s.Release()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrResource, "scene", "final backup dir", filepath.Dir(path), err)
	}
	if err := s.adapter.Save(ctx, path); err != nil {
		return services.Wrap(services.ErrResource, "scene", "final backup", path, err)
	}
	return s.Close()
}

// Close closes the underlying session.
func (s *Session) Close() error {
	s.Release()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	return s.adapter.Close()
}
