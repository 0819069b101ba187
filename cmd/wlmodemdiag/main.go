// Command wlmodemdiag connects to a Water Linked acoustic modem, prints its
// version/payload size/diagnostic, and optionally round-trips a test
// message through the datagram transport.
package main

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/waterlinked/wlmodem-go/base"
	"github.com/waterlinked/wlmodem-go/datagram"
	"github.com/waterlinked/wlmodem-go/modem"
	"github.com/waterlinked/wlmodem-go/serialio"
	"github.com/waterlinked/wlmodem-go/simulator"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device path, used when -transport=serial")
	transport := flag.String("transport", "serial", "how to reach the modem: serial, tcp, moxarealcom, rfc2217")
	address := flag.String("address", "", "host:port, used when -transport is tcp, moxarealcom or rfc2217")
	simulate := flag.Bool("simulate", false, "use the in-memory simulator instead of a real modem")
	role := flag.String("role", "a", "modem role to configure: a or b")
	channel := flag.Int("channel", 1, "acoustic channel, 1-7")
	echo := flag.String("echo", "", "send this string through the datagram transport and wait for it to echo back")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync() //nolint:errcheck

	client := newClient(clientConfig{
		simulate:  *simulate,
		transport: *transport,
		device:    *device,
		address:   *address,
	}, logger)

	if !client.Connect() {
		logger.Fatal("failed to connect to modem")
	}
	logger.Infof("connected: payload size %d bytes", client.PayloadSize())

	if ok, err := client.CmdConfigure((*role)[0], *channel, 2*time.Second); err != nil {
		logger.Fatalf("configure: %v", err)
	} else if !ok {
		logger.Fatal("configure: modem rejected role/channel")
	}

	version := client.CmdGetVersion(time.Second)
	diag := client.CmdGetDiagnostic()
	fmt.Printf("version: %v\n", version)
	fmt.Printf("diagnostic: link_up=%v packets=%d loss=%d ber=%.2f\n",
		diag.LinkUp, diag.PacketCount, diag.PacketLossCount, diag.BitErrorRate)

	if *echo == "" {
		return
	}
	runEchoTest(client, logger, *echo)
}

// clientConfig gathers the flags that determine how to reach the modem.
type clientConfig struct {
	simulate  bool
	transport string // serial, tcp, moxarealcom, rfc2217
	device    string
	address   string
}

func newClient(cfg clientConfig, logger *zap.SugaredLogger) modem.Client {
	if cfg.simulate {
		logger.Info("using in-memory simulator")
		return simulator.New()
	}

	var stream base.SerialStream
	if cfg.transport == "serial" {
		s := serialio.New(cfg.device)
		if err := s.Open(); err != nil {
			logger.Fatalf("open %s: %v", cfg.device, err)
		}
		stream = s
	} else {
		s, err := openTCPTransport(cfg.transport, cfg.address, 5*time.Second)
		if err != nil {
			logger.Fatal(err)
		}
		stream = s
	}
	stream.SetLogger(logger)

	client := modem.NewSerialClient(stream)
	client.SetLogger(logger)
	return client
}

func runEchoTest(client modem.Client, logger *zap.SugaredLogger, message string) {
	transport := datagram.NewTransport(client, 0)
	transport.Start()
	defer transport.Stop()

	payload := []byte(message)
	if !transport.Send(payload, true) {
		logger.Fatal("echo: send queue rejected message")
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if got := transport.Receive(false); got != nil {
			fmt.Printf("echo: received %q\n", string(got))
			return
		}
		time.Sleep(20 * time.Millisecond)
	}

	logger.Fatal("echo: timed out waiting for reply")
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}
