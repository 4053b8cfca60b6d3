package blast

import (
	"context"
	"time"

	"blast/internal/transcode"
	"blast/internal/tracking"
)

// Outcome reports what one format produced.
type Outcome struct {
	Format         string        `json:"format"`
	Ext            string        `json:"ext"`
	OutputPath     string        `json:"output_path"`
	Frames         Frames        `json:"frames"`
	SlateLabel     string        `json:"slate_label,omitempty"`
	Checkpoint     string        `json:"checkpoint"`
	Audio          string        `json:"audio,omitempty"`
	Movie          string        `json:"movie,omitempty"`
	CommandFile    string        `json:"command_file,omitempty"`
	TranscodeError string        `json:"transcode_error,omitempty"`
	FramesRemoved  int           `json:"frames_removed,omitempty"`
	Warnings       int           `json:"warnings"`
	Duration       time.Duration `json:"duration"`
}

// Transcoder encodes a rendered sequence into a movie.
type Transcoder interface {
	Transcode(ctx context.Context, req transcode.Request) (transcode.Result, error)
}

// HistoryRecorder persists outcomes to the blast ledger.
type HistoryRecorder interface {
	RecordBlast(ctx context.Context, e tracking.HistoryEntry) error
}
