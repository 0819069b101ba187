package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/waterlinked/wlmodem-go/modem"
)

// Simulator is an in-memory modem.Client double: it implements the same
// client contract a real SerialClient does, without a byte device, so
// application and transport code can be tested deterministically.
// Grounded on original_source/wlmodem/simulator.py's WlModemSimulator.
type Simulator struct {
	mu sync.Mutex

	linkUpDuration      time.Duration
	packetQueueDuration time.Duration
	nextPacketDuration  time.Duration

	txQueue [][]byte
	sent    int

	linkUpTime     time.Time
	nextPacketTime time.Time

	transform func([]byte) []byte
}

var _ modem.Client = (*Simulator)(nil)

// New returns a Simulator with the original's default timing: link comes up
// 3s after configure, packets are spaced 1s apart.
func New() *Simulator {
	return NewWithDurations(3*time.Second, time.Second, time.Second)
}

// NewWithDurations lets tests collapse the timers to zero for instant,
// deterministic packet delivery.
func NewWithDurations(linkUp, packetQueue, nextPacket time.Duration) *Simulator {
	now := time.Now()
	return &Simulator{
		linkUpDuration:      linkUp,
		packetQueueDuration: packetQueue,
		nextPacketDuration:  nextPacket,
		linkUpTime:          now,
		nextPacketTime:      now.Add(nextPacket),
		transform:           func(b []byte) []byte { return b },
	}
}

// SetTransform installs a hook applied to every packet just before
// delivery — the extension point spec.md §4.E reserves for bit-error or
// packet-loss injection in tests.
func (s *Simulator) SetTransform(f func([]byte) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = f
}

func (s *Simulator) isLinkUp() bool {
	return !time.Now().Before(s.linkUpTime)
}

// Connect is a no-op: the simulator behaves as an already-connected modem.
func (s *Simulator) Connect() bool {
	return true
}

func (s *Simulator) PayloadSize() int {
	return 8
}

func (s *Simulator) CmdGetVersion(time.Duration) []int {
	return []int{1, 0, 1}
}

func (s *Simulator) CmdGetPayloadSize() int {
	return 8
}

func (s *Simulator) CmdConfigure(role byte, channel int, _ time.Duration) (bool, error) {
	if role != 'a' && role != 'b' {
		return false, fmt.Errorf("%w: invalid role %q", modem.ErrGeneric, role)
	}
	if channel < 1 || channel > 7 {
		return false, fmt.Errorf("%w: invalid channel %d", modem.ErrGeneric, channel)
	}

	s.mu.Lock()
	s.linkUpTime = time.Now().Add(s.linkUpDuration)
	s.mu.Unlock()
	return true, nil
}

// CmdGetSettings always reports not-ok: the original the simulator is
// grounded on never implements get_settings either, only set_settings.
func (s *Simulator) CmdGetSettings(time.Duration) (modem.Settings, bool) {
	return modem.Settings{}, false
}

func (s *Simulator) CmdGetQueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txQueue)
}

func (s *Simulator) CmdFlushQueue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txQueue = nil
	return true
}

func (s *Simulator) CmdGetDiagnostic() modem.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return modem.Diagnostic{
		LinkUp:          s.isLinkUp(),
		PacketCount:     s.sent,
		PacketLossCount: 0,
		BitErrorRate:    3.5,
	}
}

func (s *Simulator) CmdQueuePacket(data []byte) (bool, error) {
	if len(data) != 8 {
		return false, fmt.Errorf("%w: invalid payload size %d, expected 8", modem.ErrGeneric, len(data))
	}

	s.mu.Lock()
	s.txQueue = append(s.txQueue, append([]byte(nil), data...))
	s.mu.Unlock()
	return true, nil
}

func (s *Simulator) GetDataPacket(timeout time.Duration) []byte {
	s.mu.Lock()
	if len(s.txQueue) > 0 && s.isLinkUp() && !time.Now().Before(s.nextPacketTime) {
		pkt := s.txQueue[0]
		s.txQueue = s.txQueue[1:]
		s.nextPacketTime = time.Now().Add(s.packetQueueDuration)
		s.sent++
		transform := s.transform
		s.mu.Unlock()
		return transform(pkt)
	}
	s.mu.Unlock()

	if timeout > 0 {
		time.Sleep(timeout)
	}
	return nil
}
