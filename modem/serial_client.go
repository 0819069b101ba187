package modem

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/waterlinked/wlmodem-go/base"
	"github.com/waterlinked/wlmodem-go/wire"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout   = 500 * time.Millisecond
	defaultConfigureTimeout = 2 * time.Second
	pollInterval            = time.Millisecond
	readChunkSize           = 256
)

// SerialClient drives the sentence protocol over a base.Stream byte device.
// It is the real-modem implementation of Client; simulator.Simulator
// implements the same interface without a device.
type SerialClient struct {
	device base.Stream
	parser wire.Parser

	payloadSize int
	pendingRx   []wire.Sentence
	backlog     []wire.Sentence // parsed after the sentence a caller took, not yet examined

	logger *zap.SugaredLogger
	buf    [readChunkSize]byte
}

var _ Client = (*SerialClient)(nil)

// NewSerialClient wraps device, which must already be Open. device's
// read timeout is managed internally by SerialClient (short polling
// reads), so callers should not rely on a particular SetTimeout value
// surviving across calls.
func NewSerialClient(device base.Stream) *SerialClient {
	return &SerialClient{
		device:      device,
		payloadSize: -1,
	}
}

func (c *SerialClient) SetLogger(l *zap.SugaredLogger) {
	c.logger = l
}

func (c *SerialClient) logf(format string, v ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, v...)
	}
}

func (c *SerialClient) PayloadSize() int {
	return c.payloadSize
}

// Connect writes a single EOP to reset any partial sentence the modem may
// be mid-way through, then negotiates version and payload size.
func (c *SerialClient) Connect() bool {
	if err := c.device.Write([]byte{'\n'}); err != nil {
		c.logf("connect: reset failed: %v", err)
		return false
	}

	version := c.CmdGetVersion(defaultRequestTimeout)
	if version == nil {
		c.logf("connect: timeout waiting for version")
		return false
	}
	if version[0] != 1 {
		c.logf("connect: unsupported major version %v", version)
		return false
	}

	size := c.CmdGetPayloadSize()
	if size == 0 {
		c.logf("connect: timeout waiting for payload size")
		return false
	}
	c.payloadSize = size
	return true
}

func (c *SerialClient) CmdGetVersion(timeout time.Duration) []int {
	s := c.request(wire.CodeVersion, nil, timeout)
	if s == nil {
		return nil
	}
	out := make([]int, len(s.Options))
	for i, opt := range s.Options {
		v, err := strconv.Atoi(string(opt))
		if err != nil {
			return nil
		}
		out[i] = v
	}
	return out
}

func (c *SerialClient) CmdGetPayloadSize() int {
	s := c.request(wire.CodePayloadSize, nil, defaultRequestTimeout)
	if s == nil || len(s.Options) == 0 {
		return 0
	}
	v, err := strconv.Atoi(string(s.Options[0]))
	if err != nil {
		return 0
	}
	return v
}

func (c *SerialClient) CmdConfigure(role byte, channel int, timeout time.Duration) (bool, error) {
	if role != 'a' && role != 'b' {
		return false, fmt.Errorf("%w: invalid role %q", ErrGeneric, role)
	}
	if channel < 1 || channel > 7 {
		return false, fmt.Errorf("%w: invalid channel %d", ErrGeneric, channel)
	}

	opts := [][]byte{{role}, []byte(strconv.Itoa(channel))}
	s := c.request(wire.CodeSetSettings, opts, timeout)
	if s == nil || len(s.Options) == 0 {
		return false, nil
	}
	return isAck(s.Options[0]), nil
}

func (c *SerialClient) CmdGetSettings(timeout time.Duration) (Settings, bool) {
	s := c.request(wire.CodeGetSettings, nil, timeout)
	if s == nil || len(s.Options) < 2 || len(s.Options[0]) == 0 {
		return Settings{}, false
	}
	channel, err := strconv.Atoi(string(s.Options[1]))
	if err != nil {
		return Settings{}, false
	}
	return Settings{Role: s.Options[0][0], Channel: channel}, true
}

func (c *SerialClient) CmdGetQueueLength() int {
	s := c.request(wire.CodeQueueLength, nil, defaultRequestTimeout)
	if s == nil || len(s.Options) == 0 {
		return -1
	}
	v, err := strconv.Atoi(string(s.Options[0]))
	if err != nil {
		return -1
	}
	return v
}

func (c *SerialClient) CmdFlushQueue() bool {
	s := c.request(wire.CodeFlush, nil, defaultRequestTimeout)
	if s == nil || len(s.Options) == 0 {
		return false
	}
	return isAck(s.Options[0])
}

func (c *SerialClient) CmdGetDiagnostic() Diagnostic {
	s := c.request(wire.CodeDiagnostic, nil, defaultRequestTimeout)
	if s == nil || len(s.Options) < 4 {
		return Diagnostic{}
	}
	pktCnt, _ := strconv.Atoi(string(s.Options[1]))
	pktLoss, _ := strconv.Atoi(string(s.Options[2]))
	ber, _ := strconv.ParseFloat(string(s.Options[3]), 64)
	return Diagnostic{
		LinkUp:          len(s.Options[0]) > 0 && s.Options[0][0] == 'y',
		PacketCount:     pktCnt,
		PacketLossCount: pktLoss,
		BitErrorRate:    ber,
	}
}

func (c *SerialClient) CmdQueuePacket(data []byte) (bool, error) {
	if c.payloadSize < 1 {
		return false, fmt.Errorf("%w: connect before queueing data", ErrGeneric)
	}
	if len(data) != c.payloadSize {
		return false, fmt.Errorf("%w: invalid payload size %d, expected %d", ErrGeneric, len(data), c.payloadSize)
	}

	opts := [][]byte{[]byte(strconv.Itoa(c.payloadSize)), data}
	s := c.request(wire.CodeQueuePacket, opts, defaultRequestTimeout)
	if s == nil || len(s.Options) == 0 {
		return false, nil
	}
	return isAck(s.Options[0]), nil
}

// GetDataPacket drains pendingRx first (packets queued while waiting on an
// unrelated command response), then either polls once (timeout == 0) or
// waits up to timeout for an unsolicited got_packet sentence. Sentences
// parsed after the returned one are kept for the next call.
func (c *SerialClient) GetDataPacket(timeout time.Duration) []byte {
	if len(c.pendingRx) > 0 {
		s := c.pendingRx[0]
		c.pendingRx = c.pendingRx[1:]
		return s.Options[1]
	}

	if timeout > 0 {
		s := c.waitSentence(wire.CodeGotPacket, timeout)
		if s != nil {
			return s.Options[1]
		}
		return nil
	}

	sentences, err := c.readOnce()
	if err != nil {
		c.logf("get_data_packet: parse error: %v", err)
	}
	for i, s := range sentences {
		if s.Code == wire.CodeGotPacket {
			c.backlog = append(c.backlog, sentences[i+1:]...)
			return s.Options[1]
		}
	}
	return nil
}

// request writes an encoded command and waits for its matching response.
func (c *SerialClient) request(code wire.Code, options [][]byte, timeout time.Duration) *wire.Sentence {
	if err := c.device.Write(wire.Encode(wire.DirCommand, code, options, false)); err != nil {
		c.logf("write failed for %c: %v", byte(code), err)
		return nil
	}
	return c.waitSentence(code, timeout)
}

// waitSentence polls the parser until a sentence with the given code
// arrives or timeout expires. Unsolicited got_packet sentences observed
// while waiting are queued to pendingRx rather than dropped, and sentences
// parsed after the matching one are kept for the next wait.
func (c *SerialClient) waitSentence(code wire.Code, timeout time.Duration) *wire.Sentence {
	deadline := time.Now().Add(timeout)
	for {
		sentences, err := c.readOnce()
		if err != nil {
			c.logf("wait_sentence(%c): %v", byte(code), err)
		}
		for i := range sentences {
			s := sentences[i]
			if s.Code == code {
				c.backlog = append(c.backlog, sentences[i+1:]...)
				return &s
			}
			if s.Code == wire.CodeGotPacket {
				c.pendingRx = append(c.pendingRx, s)
			}
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(pollInterval)
	}
}

// readOnce returns the backlog if there is one; otherwise it performs one
// short, non-blocking-equivalent read of whatever is immediately available
// and feeds it through the parser.
func (c *SerialClient) readOnce() ([]wire.Sentence, error) {
	if len(c.backlog) > 0 {
		sentences := c.backlog
		c.backlog = nil
		return sentences, nil
	}
	c.device.SetTimeout(pollInterval)
	n, err := c.device.Read(c.buf[:])
	if err != nil {
		if errors.Is(err, base.ErrCommunicationTimeout) || errors.Is(err, base.ErrNothingToRead) {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return c.parser.FeedBytes(c.buf[:n])
}

func isAck(opt []byte) bool {
	return len(opt) > 0 && opt[0] == 'a'
}
