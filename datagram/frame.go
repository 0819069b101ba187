package datagram

import "github.com/waterlinked/wlmodem-go/wire"

// Frame wraps payload for transmission over the raw modem byte stream:
// payload + CRC-8(payload), COBS-encoded, followed by a zero terminator.
// Grounded on original_source/wlmodem/transport.py's frame()/pad_payload().
func Frame(payload []byte) []byte {
	data := make([]byte, 0, len(payload)+1)
	data = append(data, payload...)
	data = append(data, wire.CRC8(payload))
	encoded := cobsEncode(data)
	return append(encoded, 0)
}

// FillFrame is the idle padding frame queued when there is no real payload
// to send. It COBS-decodes to zero bytes, so Unframe recognizes and
// silently discards it rather than treating it as a checksum failure.
// Always {0x01, 0x00} — never an all-0xFF run, which would be
// indistinguishable from a maximal non-zero COBS block.
func FillFrame() []byte {
	return []byte{0x01, 0x00}
}

// Unframe reverses Frame. frame must include its trailing zero terminator.
// A fill frame decodes to a nil, nil result: no payload, no error.
func Unframe(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != 0 {
		return nil, ErrMalformedFrame
	}

	decoded, err := cobsDecode(frame[:len(frame)-1])
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, nil
	}

	payload := decoded[:len(decoded)-1]
	crc := decoded[len(decoded)-1]
	if wire.CRC8(payload) != crc {
		return nil, ErrChecksum
	}
	return payload, nil
}
