// Package catalog parses the format catalog: a JSON object mapping format
// names to FormatSpec presets. Parsing is pure; a malformed entry or an
// unknown format name is reported as a services.ErrConfiguration.
package catalog
