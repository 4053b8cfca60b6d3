package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"blast/internal/config"
	"blast/internal/logging"
	"blast/internal/services"
)

// CommandFilePrefix starts every replay command file name.
const CommandFilePrefix = "FFMPEG"

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Request describes one image sequence to encode.
type Request struct {
	// FrameStart is the first frame number of the sequence.
	FrameStart int
	// Pattern is the printf-style sequence path, e.g. /out/shot.%04d.png.
	Pattern string
	// Audio is muxed in when the file exists.
	Audio   string
	Project string
	Shot    string
	Asset   string
	// CommandDir receives the replay command file.
	CommandDir string
}

// Result reports what the encode produced.
type Result struct {
	Movie       string
	CommandFile string
	Command     []string
}

// Dispatcher encodes rendered image sequences into review movies.
type Dispatcher struct {
	cfg    config.Transcode
	logger *slog.Logger
	run    commandRunner
	now    func() time.Time
}

// New constructs a dispatcher from the transcode configuration.
func New(cfg config.Transcode, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcode"),
		run:    defaultCommandRunner,
		now:    time.Now,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (d *Dispatcher) WithCommandRunner(r commandRunner) {
	if d != nil && r != nil {
		d.run = r
	}
}

// WithClock overrides the clock used for command file names.
func (d *Dispatcher) WithClock(now func() time.Time) {
	if d != nil && now != nil {
		d.now = now
	}
}

// MoviePath derives the movie written for a sequence pattern: the frame
// placeholder is dropped and the extension becomes .mov.
func MoviePath(pattern string) string {
	out := strings.ReplaceAll(pattern, ".%04d", "")
	out = strings.ReplaceAll(out, "_%04d", "")
	return strings.TrimSuffix(out, filepath.Ext(out)) + ".mov"
}

// Args builds the ffmpeg argument list for req.
func (d *Dispatcher) Args(req Request, movie string) []string {
	fps := strconv.FormatFloat(d.cfg.FPS, 'f', -1, 64)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-start_number", strconv.Itoa(req.FrameStart),
		"-framerate", fps,
		"-i", req.Pattern,
	}
	if req.Audio != "" {
		if _, err := os.Stat(req.Audio); err == nil {
			args = append(args, "-i", req.Audio)
		}
	}
	args = append(args,
		"-f", "mov",
		"-pix_fmt", d.cfg.PixelFormat,
		"-c:v", d.cfg.VideoCodec,
		"-preset", d.cfg.Preset,
		"-b:v", d.cfg.Bitrate,
		"-maxrate", d.cfg.MaxRate,
		"-bufsize", d.cfg.BufSize,
		"-r", fps,
		movie,
	)
	return args
}

// Transcode writes the replay command file, then runs the encode. A failed
// encode is returned as a services.ExecutionError.
func (d *Dispatcher) Transcode(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Pattern) == "" {
		return Result{}, errors.New("transcode: sequence pattern is required")
	}
	movie := MoviePath(req.Pattern)
	binary := d.cfg.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	command := append([]string{binary}, d.Args(req, movie)...)
	result := Result{Movie: movie, Command: command}

	if req.CommandDir != "" {
		path, err := d.writeCommandFile(req, command)
		if err != nil {
			return result, services.Wrap(services.ErrResource, "transcode", "write command file", req.CommandDir, err)
		}
		result.CommandFile = path
	}

	d.logger.Info("transcode started",
		logging.String("pattern", req.Pattern),
		logging.String("movie", movie),
		logging.Bool("audio", containsArg(command, req.Audio)),
	)
	output, err := d.run(ctx, command[0], command[1:]...)
	if err != nil {
		return result, services.NewExecutionError(command, output, err)
	}
	d.logger.Info("transcode finished", logging.String("movie", movie))
	return result, nil
}

func (d *Dispatcher) writeCommandFile(req Request, command []string) (string, error) {
	if err := os.MkdirAll(req.CommandDir, 0o755); err != nil {
		return "", err
	}
	tag := req.Shot
	if tag == "" {
		tag = req.Asset
	}
	if tag == "" {
		tag = "blast"
	}
	name := fmt.Sprintf("%s_%s_%s.sh", CommandFilePrefix, tag, d.now().Format(TimestampLayout))
	path := filepath.Join(req.CommandDir, name)
	body := "#!/bin/sh\n" + QuoteCommand(command) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// TimestampLayout renders MM_DD_YY_HH_MM.
const TimestampLayout = "01_02_06_15_04"

// QuoteCommand renders argv as a POSIX shell command line.
func QuoteCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=%+,@", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func containsArg(args []string, value string) bool {
	if value == "" {
		return false
	}
	for _, a := range args {
		if a == value {
			return true
		}
	}
	return false
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
