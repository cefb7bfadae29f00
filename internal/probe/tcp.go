package probe

import (
	"net"
	"time"
)

const DefaultTCPPayload = "TEST"

// TCPFin connects to Endpoint, writes Payload and closes the connection
// without reading, leaving the teardown to the OS stack.
type TCPFin struct {
	Endpoint    string
	Payload     []byte
	DialTimeout time.Duration // zero means no timeout
}

func (p *TCPFin) Name() string { return "tcp_fin" }

func (p *TCPFin) Run() error {
	d := net.Dialer{Timeout: p.DialTimeout}
	conn, err := d.Dial("tcp", p.Endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write(p.Payload)
	return err
}
