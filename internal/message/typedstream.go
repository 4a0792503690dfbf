package message

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"
)

// attributedBody is an NSArchiver "streamtyped" archive of an
// NSAttributedString. The plain text is the first NSString object in the
// stream, written as a '+' C-string tag followed by a length and UTF-8 bytes.
var (
	nsStringClass = []byte("NSString")
	cStringTag    = []byte{0x84, 0x01, '+'}
)

// maxTagDistance bounds how far after the class name the string tag may sit.
const maxTagDistance = 16

// DecodeAttributedBody recovers the plain text of a streamtyped
// attributedBody. It reports false when no text can be recovered.
func DecodeAttributedBody(body []byte) (string, bool) {
	i := bytes.Index(body, nsStringClass)
	if i < 0 {
		return "", false
	}
	rest := body[i+len(nsStringClass):]

	j := bytes.Index(rest, cStringTag)
	if j < 0 || j > maxTagDistance {
		return "", false
	}
	rest = rest[j+len(cStringTag):]

	n, rest, ok := readLength(rest)
	if !ok || n == 0 || n > len(rest) {
		return "", false
	}
	text := rest[:n]
	if !utf8.Valid(text) {
		return "", false
	}
	return string(text), true
}

// readLength decodes a typedstream integer: one byte below 0x80, or a tag
// byte (0x81 int16, 0x82 int32) followed by a little-endian value.
func readLength(b []byte) (int, []byte, bool) {
	if len(b) == 0 {
		return 0, nil, false
	}
	switch tag := b[0]; {
	case tag == 0x81:
		if len(b) < 3 {
			return 0, nil, false
		}
		return int(binary.LittleEndian.Uint16(b[1:3])), b[3:], true
	case tag == 0x82:
		if len(b) < 5 {
			return 0, nil, false
		}
		n := binary.LittleEndian.Uint32(b[1:5])
		if n > 1<<30 {
			return 0, nil, false
		}
		return int(n), b[5:], true
	case tag < 0x80:
		return int(tag), b[1:], true
	default:
		return 0, nil, false
	}
}
