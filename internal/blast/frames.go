package blast

import (
	"fmt"

	"blast/internal/catalog"
)

// SlateSentinelFrame is the frame a slated single-frame format renders at.
const SlateSentinelFrame = 1000

// Frames is the resolved frame layout of one format.
type Frames struct {
	// First and Last are written to the input and output nodes.
	First int `json:"first"`
	Last  int `json:"last"`
	// In and Out are the rendered range, slate frame included.
	In   int `json:"in"`
	Out  int `json:"out"`
	Step int `json:"step"`
	// SlateOut is the last frame named on the slate.
	SlateOut int  `json:"slate_out"`
	Slated   bool `json:"slated"`
}

// SlateLabel is the frame range printed on the slate.
func (f Frames) SlateLabel() string {
	return fmt.Sprintf("%d-%d", f.In+1, f.SlateOut)
}

// ResolveFrames computes the frame layout. A zero request pair selects the
// native range. Single-frame formats collapse to their first frame, fml
// formats render first, middle and last, and a slated format gains one
// leading frame.
func ResolveFrames(requestIn, requestOut, nativeIn, nativeOut int, spec catalog.FormatSpec, createSlate bool) Frames {
	in, out := requestIn, requestOut
	if in == 0 && out == 0 {
		in, out = nativeIn, nativeOut
	}
	resolvedOut := out
	if spec.SingleFrame {
		out = in
	}

	f := Frames{First: in, Last: out, Step: 1}
	if spec.FML {
		f.Step = max((out-in)/2, 1)
	}

	f.Slated = createSlate && spec.SlateNode != ""
	if f.Slated {
		in--
	}
	f.SlateOut = out
	if f.Slated && spec.SingleFrame {
		f.SlateOut = resolvedOut
		in = SlateSentinelFrame
		out = in
	}
	f.In, f.Out = in, out
	return f
}
