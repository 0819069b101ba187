package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Connect_AlwaysSucceeds(t *testing.T) {
	s := New()
	assert.True(t, s.Connect())
	assert.Equal(t, 8, s.PayloadSize())
}

func Test_CmdGetVersion(t *testing.T) {
	s := New()
	assert.Equal(t, []int{1, 0, 1}, s.CmdGetVersion(0))
}

func Test_CmdConfigure_InvalidRole(t *testing.T) {
	s := New()
	_, err := s.CmdConfigure('x', 1, 0)
	assert.Error(t, err)
}

func Test_CmdConfigure_InvalidChannel(t *testing.T) {
	s := New()
	_, err := s.CmdConfigure('a', 0, 0)
	assert.Error(t, err)
}

func Test_CmdConfigure_BringsLinkUpAfterDelay(t *testing.T) {
	s := NewWithDurations(20*time.Millisecond, 0, 0)
	ok, err := s.CmdConfigure('a', 3, 0)
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, s.CmdGetDiagnostic().LinkUp)
	time.Sleep(30 * time.Millisecond)
	assert.True(t, s.CmdGetDiagnostic().LinkUp)
}

func Test_QueuePacket_WrongSize(t *testing.T) {
	s := New()
	_, err := s.CmdQueuePacket([]byte("short"))
	assert.Error(t, err)
}

func Test_QueueAndFlush(t *testing.T) {
	s := New()
	ok, err := s.CmdQueuePacket([]byte("12345678"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.CmdGetQueueLength())

	assert.True(t, s.CmdFlushQueue())
	assert.Equal(t, 0, s.CmdGetQueueLength())
}

func Test_GetDataPacket_WithLinkUp(t *testing.T) {
	s := NewWithDurations(0, 0, 0)
	_, err := s.CmdQueuePacket([]byte("12345678"))
	require.NoError(t, err)

	data := s.GetDataPacket(0)
	assert.Equal(t, []byte("12345678"), data)
	assert.Equal(t, 0, s.CmdGetQueueLength())
}

func Test_GetDataPacket_LinkNotYetUp(t *testing.T) {
	s := NewWithDurations(time.Hour, 0, 0)
	_, err := s.CmdConfigure('a', 1, 0)
	require.NoError(t, err)
	_, err = s.CmdQueuePacket([]byte("12345678"))
	require.NoError(t, err)

	assert.Nil(t, s.GetDataPacket(0))
	assert.Equal(t, 1, s.CmdGetQueueLength())
}

func Test_GetDataPacket_RespectsSpacing(t *testing.T) {
	s := NewWithDurations(0, 50*time.Millisecond, 0)
	_, err := s.CmdQueuePacket([]byte("11111111"))
	require.NoError(t, err)
	_, err = s.CmdQueuePacket([]byte("22222222"))
	require.NoError(t, err)

	first := s.GetDataPacket(0)
	assert.Equal(t, []byte("11111111"), first)

	assert.Nil(t, s.GetDataPacket(0))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []byte("22222222"), s.GetDataPacket(0))
}

func Test_Transform_AppliedOnDelivery(t *testing.T) {
	s := NewWithDurations(0, 0, 0)
	s.SetTransform(func(pkt []byte) []byte {
		corrupted := append([]byte(nil), pkt...)
		corrupted[0] ^= 0xFF
		return corrupted
	})

	_, err := s.CmdQueuePacket([]byte("12345678"))
	require.NoError(t, err)

	data := s.GetDataPacket(0)
	assert.NotEqual(t, byte('1'), data[0])
	assert.Equal(t, []byte("2345678"), data[1:])
}

func Test_CmdGetDiagnostic_Defaults(t *testing.T) {
	s := New()
	diag := s.CmdGetDiagnostic()
	assert.Equal(t, 3.5, diag.BitErrorRate)
	assert.Equal(t, 0, diag.PacketLossCount)
}
