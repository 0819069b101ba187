package wire

import "errors"

// ErrParse means a sentence was structurally malformed: missing SOP, a
// direction byte that isn't 'c'/'r', or an unrecognized code.
var ErrParse = errors.New("wire: malformed sentence")

// ErrChecksum means the trailing *HH disagreed with the CRC-8 of the rest of
// the sentence. Decode's checksum error wraps both ErrChecksum and ErrParse,
// so errors.Is(err, ErrParse) holds for it too.
var ErrChecksum = errors.New("wire: checksum mismatch")
