package zipfile

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// resolveEncoding maps an IANA charset name to an encoding. The empty
// string and UTF-8 aliases resolve to nil, meaning no transformation.
func resolveEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("zipfile: unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("zipfile: unsupported encoding %q", name)
	}
	return enc, nil
}

// decodeText converts entry bytes in the given charset to a UTF-8 string.
func decodeText(data []byte, charset string) (string, error) {
	enc, err := resolveEncoding(charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("zipfile: decode text as %q: %w", charset, err)
	}
	return string(decoded), nil
}

// encodeText converts a UTF-8 string to bytes in the given charset.
func encodeText(text, charset string) ([]byte, error) {
	enc, err := resolveEncoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(text), nil
	}
	encoded, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("zipfile: encode text as %q: %w", charset, err)
	}
	return encoded, nil
}
