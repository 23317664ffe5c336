package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// formFile adapts an uploaded multipart file to model.FileHandle.
type formFile struct {
	header      *multipart.FileHeader
	name        string
	contentType string
}

// newFormFile trusts the part's Content-Type unless it is missing or
// generic, in which case the content is sniffed.
func newFormFile(fh *multipart.FileHeader) (*formFile, error) {
	contentType := fh.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err != nil || mt == "application/octet-stream" {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
		}
		detected, err := mimetype.DetectReader(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("sniffing upload %q: %w", fh.Filename, err)
		}
		contentType = detected.String()
	}

	return &formFile{
		header:      fh,
		name:        sanitizeFilename(fh.Filename),
		contentType: contentType,
	}, nil
}

func (f *formFile) Name() string        { return f.name }
func (f *formFile) ContentType() string { return f.contentType }
func (f *formFile) Size() int64         { return f.header.Size }

func (f *formFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

const maxFilenameLength = 100

// sanitizeFilename removes path components and dangerous characters
func sanitizeFilename(name string) string {
	name = truncate(name, maxFilenameLength)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	if name == "" {
		name = "attachment"
	}
	return name
}
