package datagram

import (
	"bytes"
	"sync"
	"time"

	"github.com/waterlinked/wlmodem-go/modem"
	"go.uber.org/zap"
)

const (
	defaultSleepTime          = 200 * time.Millisecond
	defaultDesiredQueueLength = 2
	defaultQueueCapacity      = 16
	maxRxBufSize              = 4096
)

// Transport runs a background worker that packs arbitrary-length datagrams
// into a modem.Client's fixed-size packets and reassembles them on the
// receive side. It replaces original_source/wlmodem/transport.py's
// WlUDPBase/WlUDPSocket threading model with a goroutine and channels.
type Transport struct {
	client modem.Client

	sendQueue chan []byte
	recvQueue chan []byte

	sleepTime          time.Duration
	desiredQueueLength int

	logger *zap.SugaredLogger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	txBuf []byte
	rxBuf []byte
}

// NewTransport builds a Transport over client. client must already be
// Connect()-ed. queueCapacity bounds both the send and receive queues;
// a value <= 0 uses a sensible default.
func NewTransport(client modem.Client, queueCapacity int) *Transport {
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	return &Transport{
		client:             client,
		sendQueue:          make(chan []byte, queueCapacity),
		recvQueue:          make(chan []byte, queueCapacity),
		sleepTime:          defaultSleepTime,
		desiredQueueLength: defaultDesiredQueueLength,
		stop:               make(chan struct{}),
		done:               make(chan struct{}),
	}
}

func (t *Transport) SetLogger(l *zap.SugaredLogger) {
	t.logger = l
}

func (t *Transport) logf(format string, v ...any) {
	if t.logger != nil {
		t.logger.Debugf(format, v...)
	}
}

// SetSleepTime overrides the worker's pump interval. Must be called before
// Start.
func (t *Transport) SetSleepTime(d time.Duration) {
	t.sleepTime = d
}

// Start launches the background worker. Safe to call once per Transport.
func (t *Transport) Start() {
	go t.run()
}

// Stop signals the worker to exit and waits for it to do so. Idempotent.
func (t *Transport) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Transport) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.sleepTime)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.pumpSend()
			t.pumpReceive()
		}
	}
}

// Send enqueues data for transmission. If block is false and the send
// queue is full, Send returns false without enqueuing.
func (t *Transport) Send(data []byte, block bool) bool {
	if block {
		select {
		case t.sendQueue <- data:
			return true
		case <-t.stop:
			return false
		}
	}
	select {
	case t.sendQueue <- data:
		return true
	default:
		return false
	}
}

// Receive returns the next reassembled datagram, or nil if block is false
// and none is available.
func (t *Transport) Receive(block bool) []byte {
	if block {
		select {
		case d := <-t.recvQueue:
			return d
		case <-t.stop:
			return nil
		}
	}
	select {
	case d := <-t.recvQueue:
		return d
	default:
		return nil
	}
}

// pumpSend tops up the modem's outbound packet queue to desiredQueueLength,
// assembling each fixed-size packet from framed user payloads, padding with
// FillFrame when the send queue is empty.
func (t *Transport) pumpSend() {
	size := t.client.PayloadSize()
	if size <= 0 {
		return
	}

	for t.client.CmdGetQueueLength() < t.desiredQueueLength {
		for len(t.txBuf) < size {
			select {
			case payload := <-t.sendQueue:
				t.txBuf = append(t.txBuf, Frame(payload)...)
			default:
				t.txBuf = append(t.txBuf, FillFrame()...)
			}
		}
		packet := append([]byte(nil), t.txBuf[:size]...)
		t.txBuf = t.txBuf[size:]

		ok, err := t.client.CmdQueuePacket(packet)
		if err != nil {
			t.logf("queue packet: %v", err)
			return
		}
		if !ok {
			return
		}
	}
}

// pumpReceive drains every packet currently available from the modem,
// appends it to the receive bytestream, and extracts complete frames.
func (t *Transport) pumpReceive() {
	for {
		pkt := t.client.GetDataPacket(0)
		if pkt == nil {
			return
		}
		t.rxBuf = append(t.rxBuf, pkt...)
		t.extractFrames()
	}
}

func (t *Transport) extractFrames() {
	for {
		idx := bytes.IndexByte(t.rxBuf, 0)
		if idx < 0 {
			if len(t.rxBuf) > maxRxBufSize {
				t.logf("rx buffer exceeded %d bytes with no terminator, dropping", maxRxBufSize)
				t.rxBuf = nil
			}
			return
		}

		frame := t.rxBuf[:idx+1]
		t.rxBuf = t.rxBuf[idx+1:]

		payload, err := Unframe(frame)
		if err != nil {
			t.logf("drop malformed frame: %v", err)
			continue
		}
		if payload == nil {
			continue // fill frame
		}

		select {
		case t.recvQueue <- payload:
		default:
			t.logf("receive queue full, dropping packet")
		}
	}
}
