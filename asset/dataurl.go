// Package asset decodes and fetches the binary payloads referenced by a
// template: page backgrounds and image or signature sources. Payloads come
// either inline as data URLs or from remote URLs.
package asset

import (
	"encoding/base64"
	"fmt"
	"strings"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
)

// DecodeError reports a payload that could not be decoded. It is never
// fatal to an export.
type DecodeError struct {
	Source string // truncated source reference
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("asset: decoding %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{pdfzone.ErrAssetDecode, e.Err} }

// IsDataURL reports whether src is an inline data URL.
func IsDataURL(src string) bool {
	return len(src) >= 5 && strings.EqualFold(src[:5], "data:")
}

// MediaType returns the media type declared by a data URL ("image/png"), or
// "" when src is not a data URL or declares none.
func MediaType(src string) string {
	if !IsDataURL(src) {
		return ""
	}
	head, _, found := strings.Cut(src[5:], ",")
	if !found {
		return ""
	}
	mt, _, _ := strings.Cut(head, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// DecodeDataURL returns the bytes carried by a data URL. Everything up to
// the first comma is the header and is ignored; the payload is always
// base64, with or without a ";base64" marker. Padded and unpadded input is
// accepted and embedded whitespace ignored. An empty payload yields zero
// bytes.
func DecodeDataURL(src string) ([]byte, error) {
	_, payload, found := strings.Cut(src, ",")
	if !found {
		return nil, &DecodeError{Source: short(src), Err: fmt.Errorf("missing comma separator")}
	}
	if payload == "" {
		return []byte{}, nil
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return nil, &DecodeError{Source: short(src), Err: err}
	}
	return data, nil
}

// EncodeDataURL wraps data in a base64 data URL of the given media type.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func short(src string) string {
	const max = 48
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}
