package wire

import "fmt"

// crc8Table implements the standard CRC-8 (poly 0x07, init 0x00, no
// reflection) that original_source relies on via crcmod's predefined
// "crc-8". Shared with the datagram package so the module has exactly one
// CRC-8 implementation.
var crc8Table = func() [256]byte {
	const poly = 0x07
	var t [256]byte
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for b := 0; b < 8; b++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CRC8 computes the standard CRC-8 over data.
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}

// crc8Hex renders CRC8(data) as the two lowercase hex digits the wire
// format's "*HH" checksum sigil uses.
func crc8Hex(data []byte) []byte {
	return []byte(fmt.Sprintf("%02x", CRC8(data)))
}
