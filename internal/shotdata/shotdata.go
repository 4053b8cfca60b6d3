package shotdata

import (
	"context"
	"strings"
)

// Version types and variations the blast pipeline looks up.
const (
	TypeSTMap       = "ST Map"
	TypeComposition = "Composition"
	TypeCDL         = "cdl"
	Type3DL         = "3dl"
	TypePlate       = "Flat Plate"
	TypeAudio       = "Audio"

	VariationDistorted   = "Distorted"
	VariationUndistorted = "Undistorted"
	VariationPostmove    = "Postmove"
	Variation3DL         = "3DL"

	StatusApproved = "apr"
)

// Query selects the highest-numbered version attached to an entity. Empty
// fields do not filter.
type Query struct {
	Project     string
	Entity      string
	VersionType string
	Variation   string
	Status      string
}

// Record is one published version.
type Record struct {
	ID           int64
	Project      string
	Entity       string
	VersionType  string
	Variation    string
	Status       string
	Number       int
	PathToMovie  string
	PathToFrames string
}

// Provider resolves published versions. A miss is (Record{}, false, nil); an
// error means the provider itself failed.
type Provider interface {
	FindLatestVersion(ctx context.Context, q Query) (Record, bool, error)
}

// ArtistDirectory maps an artist's display name to a login.
type ArtistDirectory interface {
	LookupUsername(ctx context.Context, displayName string) (string, bool, error)
}

// ProjectInfo reports project-level settings.
type ProjectInfo interface {
	ProjectFPS(ctx context.Context, project string) (float64, bool, error)
}

// Source bundles the three lookup contracts. Any of them may be nil.
type Source struct {
	Versions Provider
	Artists  ArtistDirectory
	Projects ProjectInfo
}

// NormalizePath converts Windows separators from published paths.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
