package modem

import (
	"time"

	"github.com/waterlinked/wlmodem-go/base"
	"go.uber.org/zap"
)

// mockDevice is a minimal base.Stream backed by an in-memory buffer,
// grounded on original_source/wlmodem/simulator.py's MockIODev.
type mockDevice struct {
	in  []byte
	out []byte
}

func newMockDevice(data string) *mockDevice {
	return &mockDevice{in: []byte(data)}
}

func (d *mockDevice) feed(data string) {
	d.in = append(d.in, data...)
}

func (d *mockDevice) Read(p []byte) (int, error) {
	if len(d.in) == 0 {
		return 0, base.ErrNothingToRead
	}
	n := copy(p, d.in)
	d.in = d.in[n:]
	return n, nil
}

func (d *mockDevice) Close() error                          { return nil }
func (d *mockDevice) Open() error                           { return nil }
func (d *mockDevice) Disconnect() error                     { return nil }
func (d *mockDevice) SetLogger(*zap.SugaredLogger)          {}
func (d *mockDevice) SetDeadline(time.Time)                 {}
func (d *mockDevice) SetTimeout(time.Duration)              {}
func (d *mockDevice) SetMaxReceivedBytes(int64)             {}
func (d *mockDevice) Write(p []byte) error                  { d.out = append(d.out, p...); return nil }
func (d *mockDevice) GetRxTxBytes() (int64, int64) {
	return int64(len(d.out)), int64(len(d.out))
}

var _ base.Stream = (*mockDevice)(nil)
