package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset selects how response bytes become text
type Charset string

const (
	// CharsetUTF8 always decodes as UTF-8, replacing invalid sequences
	CharsetUTF8 Charset = "utf-8"
	// CharsetAuto honors the declared charset, sniffing when none is declared
	CharsetAuto Charset = "auto"
)

// ParseCharset maps a configuration value to a Charset
func ParseCharset(s string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "auto":
		return CharsetAuto, nil
	default:
		return "", fmt.Errorf("unknown charset mode %q (must be: utf-8 or auto)", s)
	}
}

// ByteOrderMark is the decoded UTF-8 byte-order mark
const ByteOrderMark = "\uFEFF"

// StripBOM removes one leading byte-order mark
func StripBOM(s string) string {
	return strings.TrimPrefix(s, ByteOrderMark)
}

// Decode turns a response body into text and strips a leading BOM.
func Decode(body []byte, contentType string, mode Charset) (string, error) {
	var text []byte
	var err error

	switch mode {
	case CharsetAuto:
		if contentType == "" {
			contentType = mimetype.Detect(body).String()
		}
		var r io.Reader
		r, err = charset.NewReader(bytes.NewReader(body), contentType)
		if err != nil {
			return "", fmt.Errorf("charset reader: %w", err)
		}
		text, err = io.ReadAll(r)
	default:
		text, _, err = transform.Bytes(unicode.UTF8.NewDecoder(), body)
	}
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return StripBOM(string(text)), nil
}

// SniffCharset guesses the charset of a body that is not valid UTF-8.
// It returns "" for valid UTF-8 or when detection fails.
func SniffCharset(body []byte) string {
	if utf8.Valid(body) {
		return ""
	}
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}
