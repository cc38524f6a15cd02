package httpx

import (
	"net"
)

type Listener struct {
	net.Listener
}

func NewListener(address string) (*Listener, error) {
	ls, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &Listener{ls}, nil
}

func (l Listener) GetPort() int {
	if l.Listener == nil {
		return 0
	}
	tcp, ok := l.Addr().(*net.TCPAddr)
	if ok && tcp != nil {
		return tcp.Port
	}
	return 0
}
