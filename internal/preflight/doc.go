// Package preflight provides readiness checks for the filesystem locations,
// tracking backend and external programs blast depends on.
//
// "blast doctor" prints every check. A blast run does not call RunAll: the
// checkpoint and output steps report their own failures as they happen.
package preflight
