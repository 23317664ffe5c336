package model

import (
	"bytes"
	"io"
)

// ReportFields holds the user-supplied part of a bug report.
type ReportFields struct {
	Username    string `json:"username"`
	BugType     string `json:"bugType"`
	Description string `json:"description"`
}

// FileHandle is a read-only reference to a file supplied with a report.
type FileHandle interface {
	Name() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// EncodedAttachment is a file's content as a data URI, ready to be placed in a
// request payload.
type EncodedAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
	Data        string `json:"data"`
}

type memFile struct {
	name        string
	contentType string
	data        []byte
}

// NewFile returns a FileHandle backed by an in-memory byte slice.
func NewFile(name, contentType string, data []byte) FileHandle {
	return &memFile{name: name, contentType: contentType, data: data}
}

func (f *memFile) Name() string        { return f.name }
func (f *memFile) ContentType() string { return f.contentType }
func (f *memFile) Size() int64         { return int64(len(f.data)) }

func (f *memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
