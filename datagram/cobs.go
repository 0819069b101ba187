package datagram

// cobsEncode implements Consistent Overhead Byte Stuffing: it rewrites data
// so the result contains no zero bytes, at a cost of one byte plus at most
// one more per 254 input bytes. The caller appends the zero terminator
// separately.
func cobsEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+2)
	out = append(out, 0) // placeholder for first code byte
	codeIdx := 0
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// cobsDecode reverses cobsEncode. encoded must not include the frame
// terminator.
func cobsDecode(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded))
	i := 0
	for i < len(encoded) {
		code := encoded[i]
		if code == 0 {
			return nil, ErrMalformedFrame
		}
		i++
		end := i + int(code) - 1
		if end > len(encoded) {
			return nil, ErrMalformedFrame
		}
		out = append(out, encoded[i:end]...)
		i = end
		if code < 0xFF && i < len(encoded) {
			out = append(out, 0)
		}
	}
	return out, nil
}
