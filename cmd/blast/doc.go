// Package main hosts the blast CLI entrypoint and command graph.
//
// The run command loads a format catalog, opens a composition through the
// script engine and produces each requested deliverable. Supporting commands
// validate catalogs, manage the local tracking store and report on the
// environment. Commands share configuration loading and backend wiring through
// commandContext.
package main
