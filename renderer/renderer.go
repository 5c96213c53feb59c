// Package renderer turns pipeline results into markdown reports.
package renderer

import (
	"bytes"
	"io"
)

// ConditionalBlock lets a section fully write itself and decide at the
// end whether to keep it. If the block returns true the content is
// copied to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}
