package datagram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterlinked/wlmodem-go/simulator"
)

func newInstantSimulator() *simulator.Simulator {
	return simulator.NewWithDurations(0, 0, 0)
}

func Test_Transport_SendReceive_RoundTrip(t *testing.T) {
	sim := newInstantSimulator()
	require.True(t, sim.Connect())

	tr := NewTransport(sim, 4)
	tr.SetSleepTime(2 * time.Millisecond)
	tr.Start()
	defer tr.Stop()

	msg := make([]byte, 55)
	for i := range msg {
		msg[i] = byte(i)
	}

	require.True(t, tr.Send(msg, true))

	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for round-tripped datagram")
		default:
		}
		if got := tr.Receive(false); got != nil {
			assert.Equal(t, msg, got)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func Test_Transport_Receive_NonBlockingEmpty(t *testing.T) {
	sim := newInstantSimulator()
	require.True(t, sim.Connect())

	tr := NewTransport(sim, 4)
	assert.Nil(t, tr.Receive(false))
}

func Test_Transport_MultipleMessages_PreserveOrder(t *testing.T) {
	sim := newInstantSimulator()
	require.True(t, sim.Connect())

	tr := NewTransport(sim, 8)
	tr.SetSleepTime(2 * time.Millisecond)
	tr.Start()
	defer tr.Stop()

	messages := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, m := range messages {
		require.True(t, tr.Send(m, true))
	}

	var received [][]byte
	deadline := time.After(2 * time.Second)
	for len(received) < len(messages) {
		select {
		case <-deadline:
			t.Fatalf("timed out after receiving %d/%d messages", len(received), len(messages))
		default:
		}
		if got := tr.Receive(false); got != nil {
			received = append(received, got)
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i, m := range messages {
		assert.Equal(t, m, received[i])
	}
}

func Test_Transport_Stop_IsIdempotent(t *testing.T) {
	sim := newInstantSimulator()
	require.True(t, sim.Connect())

	tr := NewTransport(sim, 2)
	tr.Start()
	tr.Stop()
	tr.Stop()
}
