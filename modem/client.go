package modem

import "time"

// Diagnostic is the modem's self-reported link health.
type Diagnostic struct {
	LinkUp          bool
	PacketCount     int
	PacketLossCount int
	BitErrorRate    float64
}

// Settings is the modem's role/channel configuration.
type Settings struct {
	Role    byte // 'a' or 'b'
	Channel int  // 1..7
}

// Client is the command/response surface a modem exposes, real or
// simulated. Not safe for concurrent use: all operations must be called
// from one goroutine, or externally serialized.
type Client interface {
	// Connect performs the handshake (reset, get version, get payload
	// size). Returns false on timeout or unsupported major version.
	Connect() bool

	// PayloadSize returns the fixed packet size negotiated at Connect, or
	// -1 if not yet connected.
	PayloadSize() int

	CmdGetVersion(timeout time.Duration) []int
	CmdGetPayloadSize() int
	CmdConfigure(role byte, channel int, timeout time.Duration) (bool, error)
	CmdGetSettings(timeout time.Duration) (Settings, bool)
	CmdGetQueueLength() int
	CmdFlushQueue() bool
	CmdGetDiagnostic() Diagnostic

	// CmdQueuePacket queues exactly PayloadSize() bytes for transmission.
	CmdQueuePacket(data []byte) (bool, error)

	// GetDataPacket returns the next received packet. timeout == 0 means
	// non-blocking: a single poll, nil if nothing is waiting.
	GetDataPacket(timeout time.Duration) []byte
}
