package outputs

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"blast/internal/catalog"
)

// FrameToken is the frame-number placeholder used in sequence paths.
const FrameToken = "####"

// Optional parameters are applied only when the output node exposes them.
var optionalParams = map[string]bool{
	"mov32_pixel_format": true,
}

// frameFragment matches one character followed by the frame token, e.g. ".####".
var frameFragment = regexp.MustCompile(`.` + FrameToken)

// Param is one output node parameter assignment.
type Param struct {
	Name  string
	Value any
}

// Plan is the resolved output location and encoding for one format.
type Plan struct {
	Dir    string
	Path   string
	Params []Param
}

// IsOptional reports whether the parameter may be skipped when the output
// node does not have it.
func IsOptional(name string) bool { return optionalParams[name] }

// Build computes the output plan. spec.Ext must already be resolved. The
// "file" parameter is always last so engines that reset encoding options on
// a file change keep the values set before it.
func Build(root, filename string, spec catalog.FormatSpec) Plan {
	dir := path.Clean(root)
	if spec.RelativePath != "" {
		dir = path.Join(dir, spec.RelativePath)
	}
	stem := frameFragment.ReplaceAllString(filename, "")
	base := path.Join(dir, stem+spec.FileSuffix)

	colorspace := spec.Colorspace
	if colorspace == "" {
		colorspace = catalog.DefaultColorspace
	}
	params := []Param{{Name: "colorspace", Value: colorspace}}
	ext := spec.Ext
	fileType := strings.TrimPrefix(ext, ".")

	var out string
	switch {
	case ext == ".jpg":
		params = append(params,
			Param{Name: "file_type", Value: fileType},
			Param{Name: "_jpeg_quality", Value: 1.0},
		)
		out = base + "." + FrameToken + ext
	case spec.IsMovie():
		codec := spec.Codec
		if codec == "" {
			codec = catalog.DefaultCodec
		}
		params = append(params,
			Param{Name: "file_type", Value: fileType},
			Param{Name: "meta_codec", Value: codec},
		)
		if spec.PixelFormat != "" {
			params = append(params, Param{Name: "mov32_pixel_format", Value: spec.PixelFormat})
		}
		out = base + ext
	default:
		params = append(params, Param{Name: "file_type", Value: fileType})
		out = base + "." + FrameToken + ext
	}
	params = append(params, Param{Name: "file", Value: out})
	return Plan{Dir: dir, Path: out, Params: params}
}

// SequencePattern converts a frame-token path to a printf-style pattern
// such as "shot.%04d.png".
func SequencePattern(p string) string {
	return strings.ReplaceAll(p, FrameToken, "%04d")
}

// FramePath substitutes a concrete frame number into a frame-token path.
func FramePath(p string, frame int) string {
	return strings.Replace(p, FrameToken, fmt.Sprintf("%04d", frame), 1)
}
