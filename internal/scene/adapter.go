package scene

import (
	"context"
	"errors"
)

var (
	// ErrNodeNotFound reports a node name that does not resolve in the open session.
	ErrNodeNotFound = errors.New("node not found")
	// ErrParamNotFound reports a parameter the node does not expose.
	ErrParamNotFound = errors.New("parameter not found")
	// ErrNotOpen reports an operation attempted without an open session.
	ErrNotOpen = errors.New("no composition open")
)

// Key is one animation key of a stepped parameter.
type Key struct {
	Frame int `json:"frame"`
	Value any `json:"value"`
}

// Adapter is the mutation contract the orchestration engine requires of a
// compositing engine. Node and parameter names are engine identifiers.
type Adapter interface {
	Open(ctx context.Context, path string) error
	Save(ctx context.Context, path string) error
	Close() error

	HasNode(name string) bool
	Class(node string) (string, error)
	HasParam(node, param string) bool
	Param(node, param string) (any, error)
	SetParam(node, param string, value any) error
	// SetKeys clears any animation on the parameter and installs keys.
	SetKeys(node, param string, keys []Key) error
	// Execute triggers a button-style parameter such as "reload".
	Execute(node, param string) error
	NativeRange(node string) (first, last int, err error)
	Metadata(node, key string) (string, bool)
	SetRoot(param string, value any) error

	// Import pastes a saved subgraph into the session and returns the name
	// of its head node.
	Import(ctx context.Context, path string) (string, error)
	// Dependents lists nodes that take node as an input, in graph order.
	Dependents(node string) []string
	Inputs(node string) []string
	SetInput(node string, slot int, input string) error

	Render(ctx context.Context, node string, start, end, step int) error
	// SessionExt is the engine's file extension for saved sessions, with a dot.
	SessionExt() string
}
