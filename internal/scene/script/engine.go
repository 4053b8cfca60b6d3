package script

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"blast/internal/config"
	"blast/internal/logging"
	"blast/internal/scene"
	"blast/internal/services"
)

// SessionExt is the extension of saved compositions.
const SessionExt = ".json"

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Engine is a scene.Adapter over a JSON composition document. Rendering is
// delegated to an external command that reads the saved document.
type Engine struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
	run     commandRunner

	doc  *Document
	path string
}

var _ scene.Adapter = (*Engine)(nil)

// New constructs an engine from the render configuration.
func New(cfg config.Render, logger *slog.Logger) *Engine {
	return &Engine{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		timeout: time.Duration(cfg.TimeoutMinutes) * time.Minute,
		logger:  logging.NewComponentLogger(logger, "script"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Engine) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Document exposes the open document, or nil when closed.
func (e *Engine) Document() *Document { return e.doc }

func (e *Engine) Open(_ context.Context, path string) error {
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}
	e.doc = doc
	e.path = path
	return nil
}

func (e *Engine) Save(_ context.Context, path string) error {
	if e.doc == nil {
		return scene.ErrNotOpen
	}
	return e.doc.Write(path)
}

func (e *Engine) Close() error {
	e.doc = nil
	e.path = ""
	return nil
}

func (e *Engine) HasNode(name string) bool {
	if e.doc == nil {
		return false
	}
	_, ok := e.doc.node(name)
	return ok
}

func (e *Engine) lookup(name string) (*Node, error) {
	if e.doc == nil {
		return nil, scene.ErrNotOpen
	}
	n, ok := e.doc.node(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, scene.ErrNodeNotFound)
	}
	return n, nil
}

func (e *Engine) Class(node string) (string, error) {
	n, err := e.lookup(node)
	if err != nil {
		return "", err
	}
	return n.Class, nil
}

func (e *Engine) HasParam(node, param string) bool {
	n, err := e.lookup(node)
	if err != nil {
		return false
	}
	_, ok := n.Params[param]
	return ok
}

func (e *Engine) Param(node, param string) (any, error) {
	n, err := e.lookup(node)
	if err != nil {
		return nil, err
	}
	v, ok := n.Params[param]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", node, param, scene.ErrParamNotFound)
	}
	return v, nil
}

func (e *Engine) SetParam(node, param string, value any) error {
	n, err := e.lookup(node)
	if err != nil {
		return err
	}
	if _, ok := n.Params[param]; !ok {
		return fmt.Errorf("%s.%s: %w", node, param, scene.ErrParamNotFound)
	}
	n.Params[param] = value
	// A static value replaces any animation.
	delete(n.Keys, param)
	return nil
}

func (e *Engine) SetKeys(node, param string, keys []scene.Key) error {
	n, err := e.lookup(node)
	if err != nil {
		return err
	}
	if _, ok := n.Params[param]; !ok {
		return fmt.Errorf("%s.%s: %w", node, param, scene.ErrParamNotFound)
	}
	if n.Keys == nil {
		n.Keys = make(map[string][]scene.Key)
	}
	n.Keys[param] = append([]scene.Key(nil), keys...)
	return nil
}

// Execute triggers a button parameter. "reload" verifies that the node's
// file still exists.
func (e *Engine) Execute(node, param string) error {
	n, err := e.lookup(node)
	if err != nil {
		return err
	}
	if _, ok := n.Params[param]; !ok {
		return fmt.Errorf("%s.%s: %w", node, param, scene.ErrParamNotFound)
	}
	if param == "reload" {
		if file, ok := n.Params["file"].(string); ok && file != "" {
			if _, err := os.Stat(file); err != nil {
				return fmt.Errorf("%s reload: %w", node, err)
			}
		}
	}
	return nil
}

func (e *Engine) NativeRange(node string) (int, int, error) {
	n, err := e.lookup(node)
	if err != nil {
		return 0, 0, err
	}
	first, okFirst := toInt(n.Params["first"])
	last, okLast := toInt(n.Params["last"])
	if !okFirst || !okLast {
		return 0, 0, fmt.Errorf("%s has no first/last frame range", node)
	}
	return first, last, nil
}

func (e *Engine) Metadata(node, key string) (string, bool) {
	n, err := e.lookup(node)
	if err != nil {
		return "", false
	}
	v, ok := n.Metadata[key]
	return v, ok
}

func (e *Engine) SetRoot(param string, value any) error {
	if e.doc == nil {
		return scene.ErrNotOpen
	}
	e.doc.Root[param] = value
	return nil
}

// Import merges the document at path into the session. Imported nodes are
// renamed on collision and their internal wiring follows the rename. The
// first node of the imported document is its head.
func (e *Engine) Import(_ context.Context, path string) (string, error) {
	if e.doc == nil {
		return "", scene.ErrNotOpen
	}
	sub, err := ReadDocument(path)
	if err != nil {
		return "", err
	}
	if len(sub.Nodes) == 0 {
		return "", fmt.Errorf("import %s: document has no nodes", path)
	}
	renamed := make(map[string]string, len(sub.Nodes))
	for _, n := range sub.Nodes {
		name := e.doc.uniqueName(n.Name)
		renamed[n.Name] = name
		n.Name = name
		e.doc.Nodes = append(e.doc.Nodes, n)
	}
	for _, n := range sub.Nodes {
		for i, in := range n.Inputs {
			if to, ok := renamed[in]; ok {
				n.Inputs[i] = to
			}
		}
	}
	return sub.Nodes[0].Name, nil
}

func (e *Engine) Dependents(node string) []string {
	if e.doc == nil {
		return nil
	}
	var out []string
	for _, n := range e.doc.Nodes {
		for _, in := range n.Inputs {
			if in == node {
				out = append(out, n.Name)
				break
			}
		}
	}
	return out
}

func (e *Engine) Inputs(node string) []string {
	n, err := e.lookup(node)
	if err != nil {
		return nil
	}
	return append([]string(nil), n.Inputs...)
}

func (e *Engine) SetInput(node string, slot int, input string) error {
	if slot < 0 {
		return fmt.Errorf("%s: invalid input slot %d", node, slot)
	}
	n, err := e.lookup(node)
	if err != nil {
		return err
	}
	if input != "" && !e.HasNode(input) {
		return fmt.Errorf("%q: %w", input, scene.ErrNodeNotFound)
	}
	for len(n.Inputs) <= slot {
		n.Inputs = append(n.Inputs, "")
	}
	n.Inputs[slot] = input
	return nil
}

// Render runs the configured render command against the open document. The
// document must have been saved to its current path.
func (e *Engine) Render(ctx context.Context, node string, start, end, step int) error {
	if e.doc == nil {
		return scene.ErrNotOpen
	}
	if _, err := e.lookup(node); err != nil {
		return err
	}
	if step < 1 {
		return fmt.Errorf("render %s: invalid step %d", node, step)
	}
	args := expandArgs(e.args, map[string]string{
		"{start}":  strconv.Itoa(start),
		"{end}":    strconv.Itoa(end),
		"{step}":   strconv.Itoa(step),
		"{node}":   node,
		"{script}": e.path,
	})
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.logger.Info("render started",
		logging.String("node", node),
		logging.Int("start", start),
		logging.Int("end", end),
		logging.Int("step", step),
		logging.String("script", e.path),
	)
	started := time.Now()
	output, err := e.run(ctx, e.command, args...)
	if err != nil {
		return services.NewExecutionError(append([]string{e.command}, args...), output, err)
	}
	e.logger.Info("render finished",
		logging.String("node", node),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (e *Engine) SessionExt() string { return SessionExt }

func expandArgs(template []string, values map[string]string) []string {
	out := make([]string, len(template))
	for i, arg := range template {
		for token, value := range values {
			arg = strings.ReplaceAll(arg, token, value)
		}
		out[i] = arg
	}
	return out
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
