package blast

import (
	"path/filepath"
	"strings"

	"blast/internal/outputs"
	"blast/internal/services"
)

// Flags are the per-job switches. The engine copies them per format so a
// forced override never leaks into the next format.
type Flags struct {
	CreateSlate       bool `json:"create_slate"`
	NoLUT             bool `json:"no_lut"`
	NoCDL             bool `json:"no_cdl"`
	NoAudio           bool `json:"no_audio"`
	ApplyDistortion   bool `json:"apply_distortion"`
	ApplyUndistortion bool `json:"apply_undistortion"`
	ApplyPostmove     bool `json:"apply_postmove"`
	RunTranscode      bool `json:"run_transcode"`
}

// JobRequest carries everything one blast invocation needs.
type JobRequest struct {
	Comp     string
	File     string
	Output   string
	Filename string

	FrameIn  int
	FrameOut int

	Formats []string

	Project        string
	Shot           string
	Asset          string
	Artist         string
	Notes          string
	ClientShotName string
	Version        string

	Flags
}

// Normalize trims identifiers and derives the filename pattern. Without an
// explicit filename the input's base name is used; an explicit pattern
// without a frame token gets ".####" appended.
func (r JobRequest) Normalize() JobRequest {
	r.Comp = strings.TrimSpace(r.Comp)
	r.File = strings.TrimSpace(r.File)
	r.Output = strings.TrimSpace(r.Output)
	r.Project = strings.TrimSpace(r.Project)
	r.Shot = strings.TrimSpace(r.Shot)
	r.Asset = strings.TrimSpace(r.Asset)
	r.Artist = strings.TrimSpace(r.Artist)
	r.Version = strings.TrimSpace(r.Version)

	formats := make([]string, 0, len(r.Formats))
	for _, name := range r.Formats {
		if name = strings.TrimSpace(name); name != "" {
			formats = append(formats, name)
		}
	}
	r.Formats = formats

	filename := strings.TrimSpace(r.Filename)
	switch {
	case filename == "" && r.File != "":
		base := filepath.Base(r.File)
		filename = strings.TrimSuffix(base, filepath.Ext(base))
	case filename != "" && !strings.Contains(filename, outputs.FrameToken):
		filename += "." + outputs.FrameToken
	}
	r.Filename = filename
	return r
}

// Validate checks the fields a run cannot start without.
func (r JobRequest) Validate() error {
	switch {
	case r.Comp == "":
		return services.Wrap(services.ErrConfiguration, "blast", "validate job", "composition path is required", nil)
	case r.Output == "":
		return services.Wrap(services.ErrConfiguration, "blast", "validate job", "output directory is required", nil)
	case r.Filename == "":
		return services.Wrap(services.ErrConfiguration, "blast", "validate job", "filename is required when no input file is given", nil)
	case len(r.Formats) == 0:
		return services.Wrap(services.ErrConfiguration, "blast", "validate job", "at least one format is required", nil)
	case r.FrameIn < 0 || r.FrameOut < 0:
		return services.Wrap(services.ErrConfiguration, "blast", "validate job", "frame numbers must not be negative", nil)
	}
	return nil
}

// tag names the checkpoint and command files: the asset when given,
// otherwise the shot.
func (r JobRequest) tag() string {
	if r.Asset != "" {
		return r.Asset
	}
	return r.Shot
}
