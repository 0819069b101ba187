package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEchoListener accepts a single connection and echoes back whatever it
// receives, so openTCPTransport's "tcp" backend can be exercised end to end
// without a real modem or Moxa/RFC2217 peer.
func startEchoListener(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if _, werr := conn.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return ln.Addr().String()
}

func Test_OpenTCPTransport_Tcp_RoundTrip(t *testing.T) {
	addr := startEchoListener(t)

	stream, err := openTCPTransport("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer stream.Disconnect()

	stream.SetDeadline(time.Now().Add(2 * time.Second))

	want := []byte("hello modem")
	require.NoError(t, stream.Write(want))

	got := make([]byte, len(want))
	n, err := stream.Read(got)
	require.NoError(t, err)
	assert.Equal(t, want, got[:n])
}

func Test_OpenTCPTransport_UnknownTransport(t *testing.T) {
	addr := startEchoListener(t)

	_, err := openTCPTransport("carrier-pigeon", addr, 2*time.Second)
	require.Error(t, err)
}

func Test_SplitHostPort(t *testing.T) {
	host, port, err := splitHostPort("127.0.0.1:1234")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 1234, port)

	_, _, err = splitHostPort("not-an-address")
	assert.Error(t, err)
}
