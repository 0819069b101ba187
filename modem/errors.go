package modem

import "errors"

// ErrGeneric is a caller contract violation: sending before connect, a
// payload of the wrong size, or a setting out of range. These are
// programming bugs and surface immediately, never as a timeout sentinel.
var ErrGeneric = errors.New("modem: invalid request")
