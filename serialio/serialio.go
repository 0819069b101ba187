// Package serialio is the real-hardware base.SerialStream backend: it talks
// to a local TTY device (e.g. /dev/ttyUSB0) through a pure-Go termios
// binding, no cgo required. Grounded on
// _examples/Daedaluz-goserial/port_linux.go.
package serialio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/waterlinked/wlmodem-go/base"
	goserial "github.com/daedaluz/goserial"
	"go.uber.org/zap"
)

// Stream is a base.SerialStream over a local serial device path.
type Stream struct {
	path string
	port *goserial.Port

	logger *zap.SugaredLogger

	rx, tx int64
}

var _ base.SerialStream = (*Stream)(nil)

// New returns a Stream for the device at path (e.g. "/dev/ttyUSB0"). Call
// Open before use.
func New(path string) *Stream {
	return &Stream{path: path}
}

func (s *Stream) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Infof(format, v...)
	}
}

// Open opens the device and configures it with the modem's default line
// settings (115200 8N1, no flow control). Safe to call repeatedly once open.
func (s *Stream) Open() error {
	if s.port != nil {
		return nil
	}

	opts := goserial.NewOptions().SetReadTimeout(0)
	port, err := goserial.Open(s.path, opts)
	if err != nil {
		return fmt.Errorf("serialio: open %s: %w", s.path, err)
	}
	s.port = port

	if err := s.applySettings(base.DefaultModemSettings()); err != nil {
		_ = port.Close()
		s.port = nil
		return err
	}
	return nil
}

func (s *Stream) applySettings(cfg base.SerialStreamSettings) error {
	attrs, err := s.port.GetAttr()
	if err != nil {
		return fmt.Errorf("serialio: get attrs: %w", err)
	}

	attrs.MakeRaw()
	attrs.SetSpeed(baudToCFlag(cfg.BaudRate))

	attrs.Cflag &^= goserial.CSIZE
	attrs.Cflag |= dataBitsCFlag(cfg.DataBits)
	attrs.Cflag &^= goserial.CSTOPB
	if cfg.StopBits == base.SerialTwoStopBits {
		attrs.Cflag |= goserial.CSTOPB
	}

	attrs.Cflag &^= goserial.PARENB | goserial.PARODD
	switch cfg.Parity {
	case base.SerialOddParity:
		attrs.Cflag |= goserial.PARENB | goserial.PARODD
	case base.SerialEvenParity:
		attrs.Cflag |= goserial.PARENB
	}

	if err := s.port.SetAttr(goserial.TCSANOW, attrs); err != nil {
		return fmt.Errorf("serialio: set attrs: %w", err)
	}
	return s.SetFlowControl(cfg.FlowControl)
}

func (s *Stream) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Stream) Disconnect() error {
	return s.Close()
}

func (s *Stream) SetLogger(logger *zap.SugaredLogger) {
	s.logger = logger
}

func (s *Stream) SetDeadline(t time.Time) {
	if s.port == nil {
		return
	}
	if t.IsZero() {
		s.port.SetReadTimeout(0)
		return
	}
	s.port.SetReadTimeout(time.Until(t))
}

func (s *Stream) SetTimeout(d time.Duration) {
	if s.port == nil {
		return
	}
	s.port.SetReadTimeout(d)
}

func (s *Stream) SetMaxReceivedBytes(int64) {
	// no-op: no received-byte budget is enforced on a local tty.
}

func (s *Stream) GetRxTxBytes() (int64, int64) {
	return atomic.LoadInt64(&s.rx), atomic.LoadInt64(&s.tx)
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.port == nil {
		return 0, base.ErrNotOpened
	}
	n, err := s.port.Read(p)
	if n > 0 {
		atomic.AddInt64(&s.rx, int64(n))
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", base.ErrCommunicationTimeout, err)
	}
	if n == 0 {
		return 0, base.ErrNothingToRead
	}
	return n, nil
}

func (s *Stream) Write(p []byte) error {
	if s.port == nil {
		return base.ErrNotOpened
	}
	n, err := s.port.Write(p)
	atomic.AddInt64(&s.tx, int64(n))
	if err != nil {
		return fmt.Errorf("serialio: write: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("serialio: short write: wrote %d of %d bytes", n, len(p))
	}
	return nil
}

func (s *Stream) SetSpeed(baudRate int, dataBits base.SerialDataBits, parity base.SerialParity, stopBits base.SerialStopBits) error {
	if s.port == nil {
		return base.ErrNotOpened
	}
	return s.applySettings(base.SerialStreamSettings{
		BaudRate: baudRate,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	})
}

func (s *Stream) SetFlowControl(flowControl base.SerialFlowControl) error {
	if s.port == nil {
		return base.ErrNotOpened
	}
	attrs, err := s.port.GetAttr()
	if err != nil {
		return fmt.Errorf("serialio: get attrs: %w", err)
	}
	attrs.Cflag &^= goserial.CRTSCTS
	if flowControl == base.SerialHWFlowControl {
		attrs.Cflag |= goserial.CRTSCTS
	}
	if err := s.port.SetAttr(goserial.TCSANOW, attrs); err != nil {
		return fmt.Errorf("serialio: set attrs: %w", err)
	}
	return nil
}

func (s *Stream) SetDTR(dtr bool) error {
	if s.port == nil {
		return base.ErrNotOpened
	}
	if dtr {
		return s.port.EnableModemLines(goserial.TIOCM_DTR)
	}
	return s.port.DisableModemLines(goserial.TIOCM_DTR)
}

func dataBitsCFlag(d base.SerialDataBits) goserial.CFlag {
	switch d {
	case base.Serial5DataBits:
		return goserial.CS5
	case base.Serial6DataBits:
		return goserial.CS6
	case base.Serial7DataBits:
		return goserial.CS7
	default:
		return goserial.CS8
	}
}

func baudToCFlag(baud int) goserial.CFlag {
	switch baud {
	case 9600:
		return goserial.B9600
	case 19200:
		return goserial.B19200
	case 38400:
		return goserial.B38400
	case 57600:
		return goserial.B57600
	case 230400:
		return goserial.B230400
	case 460800:
		return goserial.B460800
	case 921600:
		return goserial.B921600
	default:
		return goserial.B115200
	}
}
