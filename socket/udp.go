package socket

import (
	"context"
	"net"
	"time"

	"github.com/oslowtech/reliabletransfer/protocol"
)

// UDP adapts a *net.UDPConn to the Datagram interface, following the
// teacher's server.go pattern of net.ListenUDP + ReadFromUDP for the
// receive side and net.DialUDP/WriteToUDP for the send side.
type UDP struct {
	conn *net.UDPConn
}

// ListenUDP binds a UDP socket at address for a receiving endpoint.
func ListenUDP(address string) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: conn}, nil
}

// DialUDP connects a UDP socket to a remote address for a sending
// endpoint.
func DialUDP(address string) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: conn}, nil
}

// ReadFrom implements Datagram.
func (u *UDP) ReadFrom(ctx context.Context) ([]byte, net.Addr, error) {
	stop := context.AfterFunc(ctx, func() { u.conn.SetReadDeadline(time.Now()) })
	defer stop()
	buf := make([]byte, protocol.MaxPacketSize)
	n, addr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

// WriteTo implements Datagram.
func (u *UDP) WriteTo(ctx context.Context, data []byte, addr net.Addr) error {
	if addr == nil {
		_, err := u.conn.Write(data)
		return err
	}
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		_, err := u.conn.WriteTo(data, addr)
		return err
	}
	_, err := u.conn.WriteToUDP(data, udpAddr)
	return err
}

// SetReadTimeout implements Datagram.
func (u *UDP) SetReadTimeout(d time.Duration) {
	if d <= 0 {
		u.conn.SetReadDeadline(time.Time{})
		return
	}
	u.conn.SetReadDeadline(time.Now().Add(d))
}

// LocalAddr implements Datagram.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Close implements Datagram.
func (u *UDP) Close() error { return u.conn.Close() }

var _ Datagram = (*UDP)(nil)
