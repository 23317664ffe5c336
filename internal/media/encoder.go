package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/phumzea/reports/internal/model"
)

// MaxFileSize is the per-file ceiling applied before anything is encoded or sent.
const MaxFileSize int64 = 10 << 20

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

var errContentTooLarge = errors.New("content exceeds size limit")

// Allowed reports whether contentType is one of the accepted upload types.
func Allowed(contentType string) bool {
	return allowedTypes[baseType(contentType)]
}

// FileError describes a single file that could not be encoded.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("media: %s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Encoder turns report attachments into data URIs.
type Encoder struct {
	logger        *slog.Logger
	stripMetadata bool
}

type EncoderOption func(*Encoder)

// WithMetadataStripping re-encodes JPEG and PNG files to drop EXIF and GPS
// data before they are encoded.
func WithMetadataStripping(on bool) EncoderOption {
	return func(e *Encoder) {
		e.stripMetadata = on
	}
}

func NewEncoder(logger *slog.Logger, opts ...EncoderOption) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Encoder{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeAll encodes files one at a time, in order. Files over MaxFileSize are
// skipped with a warning and never produce an error. A file that cannot be
// read is left out and reported as a *FileError in the joined error; the
// other files are still encoded and returned.
func (e *Encoder) EncodeAll(ctx context.Context, files []model.FileHandle) ([]model.EncodedAttachment, error) {
	attachments := make([]model.EncodedAttachment, 0, len(files))
	var errs []error

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return attachments, err
		}

		if f.Size() > MaxFileSize {
			e.logger.Warn("media: file too large, skipping",
				"name", f.Name(),
				"size", humanize.IBytes(uint64(f.Size())),
				"max", humanize.IBytes(uint64(MaxFileSize)))
			continue
		}

		data, err := readFile(f)
		if errors.Is(err, errContentTooLarge) {
			e.logger.Warn("media: file content larger than declared, skipping",
				"name", f.Name(),
				"declared", humanize.IBytes(uint64(f.Size())))
			continue
		}
		if err != nil {
			e.logger.Warn("media: failed to read file, skipping", "name", f.Name(), "err", err)
			errs = append(errs, &FileError{Name: f.Name(), Err: err})
			continue
		}

		contentType := f.ContentType()
		if e.stripMetadata && Strippable(contentType) {
			stripped, err := StripMetadata(data, contentType)
			if err != nil {
				e.logger.Warn("media: metadata strip failed, sending original", "name", f.Name(), "err", err)
			} else {
				data = stripped
			}
		}

		attachments = append(attachments, model.EncodedAttachment{
			Name:        f.Name(),
			ContentType: contentType,
			Size:        f.Size(),
			Data:        DataURI(contentType, data),
		})
	}

	return attachments, errors.Join(errs...)
}

// Validate returns one message per policy violation, in input order. A file
// with a disallowed type that is also too large yields two messages. It never
// filters or modifies files.
func Validate(files []model.FileHandle) []string {
	problems := make([]string, 0)
	for _, f := range files {
		if !Allowed(f.ContentType()) {
			problems = append(problems, fmt.Sprintf("%s: Invalid file type", f.Name()))
		}
		if f.Size() > MaxFileSize {
			problems = append(problems, fmt.Sprintf("%s: File too large (max %s)", f.Name(), humanize.IBytes(uint64(MaxFileSize))))
		}
	}
	return problems
}

func readFile(f model.FileHandle) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, errContentTooLarge
	}
	return data, nil
}

// baseType strips parameters and normalises case, so "image/JPEG; q=1"
// compares equal to "image/jpeg".
func baseType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
