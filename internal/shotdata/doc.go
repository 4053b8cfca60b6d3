// Package shotdata defines the lookup contracts blast uses against the
// production tracking database: latest published version per entity, artist
// usernames, and project frame rates. Concrete stores live in
// internal/tracking; Memory is the in-process implementation.
package shotdata
