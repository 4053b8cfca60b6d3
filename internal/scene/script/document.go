package script

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"blast/internal/scene"
)

// Document is the on-disk composition.
type Document struct {
	Root  map[string]any `json:"root"`
	Nodes []*Node        `json:"nodes"`
}

// Node is one graph node. Params lists every parameter the node exposes;
// setting a parameter that is not listed fails like an unknown knob would.
type Node struct {
	Name     string                 `json:"name"`
	Class    string                 `json:"class"`
	Params   map[string]any         `json:"params,omitempty"`
	Inputs   []string               `json:"inputs,omitempty"`
	Metadata map[string]string      `json:"metadata,omitempty"`
	Keys     map[string][]scene.Key `json:"keys,omitempty"`
}

// ReadDocument loads a composition from disk.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Root == nil {
		doc.Root = make(map[string]any)
	}
	seen := make(map[string]struct{}, len(doc.Nodes))
	for i, node := range doc.Nodes {
		if node == nil || node.Name == "" {
			return nil, fmt.Errorf("parse %s: node %d has no name", path, i)
		}
		if _, dup := seen[node.Name]; dup {
			return nil, fmt.Errorf("parse %s: duplicate node %q", path, node.Name)
		}
		seen[node.Name] = struct{}{}
		if node.Params == nil {
			node.Params = make(map[string]any)
		}
	}
	return &doc, nil
}

// Write stores the document at path, replacing any existing file atomically.
func (d *Document) Write(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blast-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (d *Document) node(name string) (*Node, bool) {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// uniqueName returns name, or name with a numeric suffix when it is taken.
func (d *Document) uniqueName(name string) string {
	if _, taken := d.node(name); !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if _, taken := d.node(candidate); !taken {
			return candidate
		}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
