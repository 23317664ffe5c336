package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

const jpegQuality = 92

// ErrFormatMismatch is returned when an upload's bytes decode as a different
// image format than its declared content type.
var ErrFormatMismatch = errors.New("content does not match declared type")

type reencoder struct {
	format string
	encode func(w io.Writer, img image.Image) error
}

// reencoders maps the attachment types that can carry EXIF or GPS data to the
// encoder that writes them back without it.
var reencoders = map[string]reencoder{
	"image/jpeg": {"jpeg", func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	}},
	"image/png": {"png", png.Encode},
}

// Strippable reports whether StripMetadata rewrites content of this type.
func Strippable(contentType string) bool {
	_, ok := reencoders[baseType(contentType)]
	return ok
}

// StripMetadata decodes an attachment image and writes the pixels back out,
// leaving embedded metadata behind. Other allowed types are returned as is.
func StripMetadata(data []byte, contentType string) ([]byte, error) {
	re, ok := reencoders[baseType(contentType)]
	if !ok {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", re.format, err)
	}
	if format != re.format {
		return nil, fmt.Errorf("%w: declared %s, found %s", ErrFormatMismatch, re.format, format)
	}

	var buf bytes.Buffer
	if err := re.encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", re.format, err)
	}
	return buf.Bytes(), nil
}
