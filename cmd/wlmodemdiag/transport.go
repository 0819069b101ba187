package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/waterlinked/wlmodem-go/base"
	"github.com/waterlinked/wlmodem-go/directserial"
	"github.com/waterlinked/wlmodem-go/moxarealcom"
	"github.com/waterlinked/wlmodem-go/rfc2217"
	"github.com/waterlinked/wlmodem-go/tcp"
)

// openTCPTransport dials address and wraps the connection with the
// serial-over-TCP framing transport selects: "tcp" for a bare passthrough
// (directserial), "moxarealcom" for Moxa NPort Real COM, "rfc2217" for
// RFC2217 telnet COM-port control.
func openTCPTransport(transport, address string, timeout time.Duration) (base.SerialStream, error) {
	host, port, err := splitHostPort(address)
	if err != nil {
		return nil, err
	}

	raw := tcp.New(host, port, timeout)

	var stream base.SerialStream
	switch transport {
	case "tcp":
		stream = directserial.New(raw)
	case "moxarealcom":
		settings := base.DefaultModemSettings()
		stream = moxarealcom.New(raw, &settings)
	case "rfc2217":
		stream = rfc2217.NewRfc2217Serial(raw)
	default:
		return nil, fmt.Errorf("unknown tcp transport %q", transport)
	}

	if err := stream.Open(); err != nil {
		return nil, fmt.Errorf("open %s over %s: %w", address, transport, err)
	}
	return stream, nil
}

func splitHostPort(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", address, err)
	}
	return host, port, nil
}
