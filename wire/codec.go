package wire

import (
	"bytes"
	"fmt"
)

// Encode renders a sentence to wire bytes: SOP, direction, code, comma
// separated options, an optional "*HH" checksum, and a trailing LF.
func Encode(dir Direction, code Code, options [][]byte, checksum bool) []byte {
	body := make([]byte, 0, 3+8*len(options))
	body = append(body, 'w', byte(dir), byte(code))
	for _, opt := range options {
		body = append(body, ',')
		body = append(body, opt...)
	}

	if checksum {
		h := crc8Hex(body)
		body = append(body, '*')
		body = append(body, h...)
	}

	return append(body, '\n')
}

// Decode parses a single candidate sentence starting at the opening 'w'.
// Only one trailing LF, as Encode appends, is stripped — a binary q/p
// payload may legitimately end in an EOP byte, and that byte belongs to the
// payload, not the terminator. The returned options alias buf.
func Decode(buf []byte) (Sentence, error) {
	if n := len(buf); n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
	}

	if len(buf) < 3 {
		return Sentence{}, fmt.Errorf("%w: sentence too short (%d bytes)", ErrParse, len(buf))
	}
	if buf[0] != 'w' {
		return Sentence{}, fmt.Errorf("%w: missing SOP, got %q", ErrParse, buf[0])
	}

	dir := Direction(buf[1])
	if dir != DirCommand && dir != DirResponse {
		return Sentence{}, fmt.Errorf("%w: invalid direction %q", ErrParse, buf[1])
	}

	body := buf
	if len(body) >= 3 && body[len(body)-3] == '*' {
		given := body[len(body)-2:]
		body = body[:len(body)-3]
		want := crc8Hex(body)
		if !bytes.Equal(given, want) {
			return Sentence{}, fmt.Errorf("%w: %w: expected %s got %s", ErrChecksum, ErrParse, want, given)
		}
	}

	if len(body) < 3 {
		return Sentence{}, fmt.Errorf("%w: sentence too short after checksum strip", ErrParse)
	}

	code := Code(body[2])
	if !code.valid() {
		return Sentence{}, fmt.Errorf("%w: unknown code %q", ErrParse, body[2])
	}

	var fragments [][]byte
	if code.hasBinaryPayload() {
		fragments = bytes.SplitN(body, []byte{','}, 3)
	} else {
		fragments = bytes.Split(body, []byte{','})
	}

	var options [][]byte
	if len(fragments) > 1 {
		options = fragments[1:]
	}

	return Sentence{Direction: dir, Code: code, Options: options}, nil
}
