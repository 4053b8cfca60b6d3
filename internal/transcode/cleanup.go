package transcode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"blast/internal/outputs"
)

// RemoveFrames deletes the frames [first, last] of a sequence whose path
// carries the #### placeholder. Missing frames are ignored.
func RemoveFrames(sequence string, first, last int) (int, error) {
	if !strings.Contains(sequence, outputs.FrameToken) {
		return 0, fmt.Errorf("remove frames: %s has no frame placeholder", sequence)
	}
	if last < first {
		first, last = last, first
	}
	removed := 0
	var errs []error
	for frame := first; frame <= last; frame++ {
		if err := os.Remove(outputs.FramePath(sequence, frame)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
