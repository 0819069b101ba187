package datagram

import "errors"

// ErrMalformedFrame is returned when a frame is truncated, missing its
// terminator, or its COBS encoding is structurally invalid.
var ErrMalformedFrame = errors.New("datagram: malformed frame")

// ErrChecksum is returned when a frame decodes cleanly but its trailing
// CRC-8 byte does not match the recovered payload.
var ErrChecksum = errors.New("datagram: checksum mismatch")
