package cleanup

import (
	"io"
)

func DumpAndCloseStream(r io.ReadCloser) {
	if r == nil {
		return // nothing to dump or close
	}
	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}
