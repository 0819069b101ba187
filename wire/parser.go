package wire

// Parser drives the codec over an unbounded byte stream with unknown
// framing boundaries: partial sentences, embedded binary payloads, and
// noise between sentences are all tolerated. The zero value is ready to
// use.
type Parser struct {
	buffer  []byte
	holdoff int
}

// Feed processes one byte and returns a decoded sentence once a full one has
// arrived. A nil sentence and nil error means "need more bytes". A non-nil
// error is a parse or checksum failure; the parser has already resynced
// (buffer reset) and the caller should simply keep feeding bytes.
func (p *Parser) Feed(b byte) (*Sentence, error) {
	if len(p.buffer) == 0 && isEOP(b) {
		return nil, nil
	}

	ready := false
	switch {
	case p.holdoff > 0:
		p.buffer = append(p.buffer, b)
		p.holdoff--
	case isEOP(b):
		ready = true
	default:
		p.buffer = append(p.buffer, b)
	}

	if p.holdoff == 0 {
		if n := binaryPayloadHoldoff(p.buffer); n > 0 {
			p.holdoff = n
		}
	}

	if p.holdoff > 0 || !ready {
		return nil, nil
	}

	// Decode strips exactly one trailing LF and its options alias its input,
	// so it gets a terminated copy: a binary payload ending in an EOP byte
	// keeps that byte, and reusing the buffer cannot change the sentence.
	line := append(append(make([]byte, 0, len(p.buffer)+1), p.buffer...), '\n')
	sentence, err := Decode(line)
	p.reset()
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

// FeedBytes feeds an entire chunk and returns every sentence it completed,
// in order. A parse/checksum error costs only the sentence it occurred in:
// the parser resyncs and keeps feeding the rest of the chunk, and the first
// such error is returned alongside every sentence decoded from the chunk.
func (p *Parser) FeedBytes(data []byte) ([]Sentence, error) {
	var out []Sentence
	var firstErr error
	for _, b := range data {
		s, err := p.Feed(b)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, firstErr
}

func (p *Parser) reset() {
	p.buffer = p.buffer[:0]
	p.holdoff = 0
}

func isEOP(b byte) bool {
	return b == '\n' || b == '\r'
}

// binaryPayloadHoldoff detects the prefix "w[cr][qp],<digits>," and returns
// <digits> as an integer, or -1 if buf doesn't match. Matches the regular
// expression spec.md §4.C names: ^w[cr][qp],(\d+),$
func binaryPayloadHoldoff(buf []byte) int {
	if len(buf) < 6 {
		return -1
	}
	if buf[0] != 'w' {
		return -1
	}
	if buf[1] != byte(DirCommand) && buf[1] != byte(DirResponse) {
		return -1
	}
	if buf[2] != byte(CodeQueuePacket) && buf[2] != byte(CodeGotPacket) {
		return -1
	}
	if buf[3] != ',' {
		return -1
	}
	if buf[len(buf)-1] != ',' {
		return -1
	}

	digits := buf[4 : len(buf)-1]
	if len(digits) == 0 {
		return -1
	}

	n := 0
	for _, d := range digits {
		if d < '0' || d > '9' {
			return -1
		}
		n = n*10 + int(d-'0')
	}
	return n
}
