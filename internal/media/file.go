package media

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"videoreview/internal/apperrors"
)

const defaultContentType = "video/mp4"

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// ContentType picks the media type from the file extension, falling back to video/mp4.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return defaultContentType
}

// File is an open stored video.
type File struct {
	f           *os.File
	Size        int64
	ContentType string
}

// Open opens a regular file for streaming. A missing file or a directory is reported
// as not found.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("File not found")
		}
		return nil, apperrors.Storage(err, "Failed to open file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.Storage(err, "Failed to stat file")
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, apperrors.NotFound("File not found")
	}
	return &File{f: f, Size: info.Size(), ContentType: ContentType(path)}, nil
}

// Reader returns the bytes of r, or the whole file when r is nil. Closing the reader
// closes the file.
func (f *File) Reader(r *Range) io.ReadCloser {
	if r == nil {
		return &windowReader{SectionReader: io.NewSectionReader(f.f, 0, f.Size), f: f.f}
	}
	return &windowReader{SectionReader: io.NewSectionReader(f.f, r.Start, r.Length()), f: f.f}
}

// Close releases the file without reading it.
func (f *File) Close() error {
	return f.f.Close()
}

type windowReader struct {
	*io.SectionReader
	f *os.File
}

func (w *windowReader) Close() error {
	return w.f.Close()
}
