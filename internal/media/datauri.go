package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const defaultContentType = "application/octet-stream"

// DataURI encodes data as "data:<type>;base64,<payload>".
func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = defaultContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI reverses DataURI. Only base64 data URIs are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("media: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("media: data URI has no payload")
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("media: data URI is not base64 encoded")
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("media: decoding data URI: %w", err)
	}
	return contentType, data, nil
}
