// Package media serves stored video files as byte windows for HTTP range requests.
package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsatisfiable means the requested range does not overlap the file.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// Range is an inclusive byte window.
type Range struct {
	Start int64
	End   int64
}

// Length is the number of bytes in the window.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a file of the given size.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedRange is the Content-Range value sent with a 416.
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange interprets a Range header against a file of the given size. It returns
// nil when the whole file should be sent: no header, or a unit other than bytes.
// Only the first range of a multi-range request is honored. "bytes=N-" runs to the
// end of the file, "bytes=-N" selects the last N bytes, and an end past the file is
// clamped.
func ParseRange(header string, size int64) (*Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}
	const unit = "bytes="
	if !strings.HasPrefix(header, unit) {
		return nil, nil
	}
	window := strings.TrimSpace(strings.SplitN(header[len(unit):], ",", 2)[0])
	dash := strings.IndexByte(window, '-')
	if dash < 0 {
		return nil, ErrUnsatisfiable
	}
	startStr, endStr := strings.TrimSpace(window[:dash]), strings.TrimSpace(window[dash+1:])
	if size <= 0 {
		return nil, ErrUnsatisfiable
	}

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrUnsatisfiable
		}
		if n > size {
			n = size
		}
		return &Range{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return nil, ErrUnsatisfiable
	}
	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, ErrUnsatisfiable
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return &Range{Start: start, End: end}, nil
}
