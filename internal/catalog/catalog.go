package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"blast/internal/services"
)

// Default encoding hints applied when a format leaves them unset.
const (
	DefaultCodec      = "apcs"
	DefaultColorspace = "default"
	// BurninNode is the fixed name of the burn-in text node.
	BurninNode = "Burnin"
)

// FormatSpec is the immutable configuration of one deliverable format.
type FormatSpec struct {
	Name string `json:"-"`

	InputNode  string `json:"-"`
	OutputNode string `json:"-"`

	Ext         string
	Codec       string
	Colorspace  string
	PixelFormat string

	SingleFrame bool
	FML         bool

	SlateNode        string
	SlateSwitch      string
	DistortionNode   string
	DistortionSwitch string
	CDLNode          string
	CDLSwitch        string
	LUTNode          string
	LUTSwitch        string
	TimecodeNode     string

	RelativePath string
	FileSuffix   string

	ImportFlattenedPlate   string
	OverrideJpegColorspace string

	RunTranscode bool
}

// rawSpec mirrors the catalog JSON. Several keys exist in two spellings: the
// snake_case names used by existing studio catalogs and camelCase aliases.
type rawSpec struct {
	Nodes       []string `json:"nodes"`
	Ext         string   `json:"ext"`
	Codec       string   `json:"codec"`
	Colorspace  string   `json:"colorspace"`
	PixelFormat string   `json:"pixelFormat"`

	SingleFrame      *bool `json:"single_frame"`
	SingleFrameCamel *bool `json:"singleFrame"`
	FML              bool  `json:"fml"`

	SlateNode             string `json:"slate_node"`
	SlateNodeCamel        string `json:"slateNode"`
	SlateSwitch           string `json:"slate_switch"`
	SlateSwitchCamel      string `json:"slateSwitch"`
	DistortionNode        string `json:"distortion_node"`
	DistortionNodeCamel   string `json:"distortionNode"`
	DistortionSwitch      string `json:"distortion_switch"`
	DistortionSwitchCamel string `json:"distortionSwitch"`
	CDLNode               string `json:"cdl_node"`
	CDLNodeCamel          string `json:"cdlNode"`
	CDLSwitch             string `json:"cdlswitch"`
	CDLSwitchCamel        string `json:"cdlSwitch"`
	LUTNode               string `json:"lut_node"`
	LUTNodeCamel          string `json:"lutNode"`
	LUTSwitch             string `json:"lutswitch"`
	LUTSwitchCamel        string `json:"lutSwitch"`
	Timecode              string `json:"timecode"`
	TimecodeCamel         string `json:"timecodeNode"`

	RelativePath      string `json:"relative_path"`
	RelativePathCamel string `json:"relativePath"`
	FileSuffix        string `json:"file_suffix"`
	FileSuffixCamel   string `json:"fileSuffix"`

	ImportPlate            string `json:"import_flattened_plate"`
	ImportPlateCamel       string `json:"importFlattenedPlate"`
	OverrideJpegColorspace string `json:"overrideJpegColorspace"`

	RunFFmpeg    *bool `json:"runffmpeg"`
	RunTranscode *bool `json:"runTranscode"`
}

// Catalog maps format names to their specs.
type Catalog struct {
	formats map[string]FormatSpec
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", path, err)
	}
	defer file.Close()
	cat, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a catalog JSON object and validates every entry.
func Parse(r io.Reader) (*Catalog, error) {
	var raw map[string]rawSpec
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "decode", "", err)
	}
	if len(raw) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "decode", "catalog defines no formats", nil)
	}
	formats := make(map[string]FormatSpec, len(raw))
	for name, entry := range raw {
		spec, err := entry.toSpec(name)
		if err != nil {
			return nil, err
		}
		formats[name] = spec
	}
	return &Catalog{formats: formats}, nil
}

// New builds a catalog from already constructed specs. Specs are validated.
func New(specs ...FormatSpec) (*Catalog, error) {
	formats := make(map[string]FormatSpec, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		formats[spec.Name] = spec.withDefaults()
	}
	return &Catalog{formats: formats}, nil
}

// Lookup returns the format registered under name.
func (c *Catalog) Lookup(name string) (FormatSpec, error) {
	if c != nil {
		if spec, ok := c.formats[name]; ok {
			return spec, nil
		}
	}
	return FormatSpec{}, services.Wrap(services.ErrConfiguration, "catalog", "lookup", fmt.Sprintf("unknown format %q", name), nil)
}

// Require checks that every requested name exists so a run can fail before
// any scene mutation happens.
func (c *Catalog) Require(names []string) error {
	if len(names) == 0 {
		return services.Wrap(services.ErrConfiguration, "catalog", "require", "no formats requested", nil)
	}
	var missing []string
	for _, name := range names {
		if _, err := c.Lookup(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "catalog", "require", "unknown formats: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Names returns the format names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.formats))
	for name := range c.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of formats.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.formats)
}

// Validate enforces the structural invariants of a spec.
func (s FormatSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return services.Wrap(services.ErrConfiguration, "catalog", "validate", "format name is empty", nil)
	}
	if strings.TrimSpace(s.InputNode) == "" || strings.TrimSpace(s.OutputNode) == "" {
		return services.Wrap(services.ErrConfiguration, "catalog", "validate", fmt.Sprintf("format %q: nodes must name an input and an output node", s.Name), nil)
	}
	if s.Ext != "" && !strings.HasPrefix(s.Ext, ".") {
		return services.Wrap(services.ErrConfiguration, "catalog", "validate", fmt.Sprintf("format %q: ext %q must start with a dot", s.Name, s.Ext), nil)
	}
	return nil
}

// WithExt returns a copy of the format using ext as its output extension.
func (s FormatSpec) WithExt(ext string) FormatSpec {
	s.Ext = ext
	return s
}

// IsMovie reports whether the format produces a single container file.
func (s FormatSpec) IsMovie() bool {
	return strings.EqualFold(s.Ext, ".mov")
}

func (s FormatSpec) withDefaults() FormatSpec {
	if s.Codec == "" {
		s.Codec = DefaultCodec
	}
	if s.Colorspace == "" {
		s.Colorspace = DefaultColorspace
	}
	return s
}

func (r rawSpec) toSpec(name string) (FormatSpec, error) {
	if len(r.Nodes) != 2 {
		return FormatSpec{}, services.Wrap(services.ErrConfiguration, "catalog", "validate", fmt.Sprintf("format %q: nodes must list exactly two node names, got %d", name, len(r.Nodes)), nil)
	}
	spec := FormatSpec{
		Name:                   name,
		InputNode:              strings.TrimSpace(r.Nodes[0]),
		OutputNode:             strings.TrimSpace(r.Nodes[1]),
		Ext:                    strings.TrimSpace(r.Ext),
		Codec:                  strings.TrimSpace(r.Codec),
		Colorspace:             strings.TrimSpace(r.Colorspace),
		PixelFormat:            strings.TrimSpace(r.PixelFormat),
		SingleFrame:            firstBool(r.SingleFrame, r.SingleFrameCamel),
		FML:                    r.FML,
		SlateNode:              first(r.SlateNode, r.SlateNodeCamel),
		SlateSwitch:            first(r.SlateSwitch, r.SlateSwitchCamel),
		DistortionNode:         first(r.DistortionNode, r.DistortionNodeCamel),
		DistortionSwitch:       first(r.DistortionSwitch, r.DistortionSwitchCamel),
		CDLNode:                first(r.CDLNode, r.CDLNodeCamel),
		CDLSwitch:              first(r.CDLSwitch, r.CDLSwitchCamel),
		LUTNode:                first(r.LUTNode, r.LUTNodeCamel),
		LUTSwitch:              first(r.LUTSwitch, r.LUTSwitchCamel),
		TimecodeNode:           first(r.Timecode, r.TimecodeCamel),
		RelativePath:           first(r.RelativePath, r.RelativePathCamel),
		FileSuffix:             first(r.FileSuffix, r.FileSuffixCamel),
		ImportFlattenedPlate:   first(r.ImportPlate, r.ImportPlateCamel),
		OverrideJpegColorspace: strings.TrimSpace(r.OverrideJpegColorspace),
		RunTranscode:           firstBool(r.RunFFmpeg, r.RunTranscode),
	}
	if err := spec.Validate(); err != nil {
		return FormatSpec{}, err
	}
	return spec.withDefaults(), nil
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}
