package socket

import (
	"net"
	"testing"
)

func TestFailOnPortInUse(t *testing.T) {
	l, err := NewUDP(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = l.Close() }()
	_, err = NewUDP(l.LocalAddr().(*net.UDPAddr).Port)
	if err == nil {
		t.Errorf("expected busy port error, but got none")
	}
	if !IsPortBusyError(err) {
		t.Errorf("expected busy port error, got %v", err)
	}
}

func TestListenerPortRoll(t *testing.T) {
	l, err := NewUDP(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = l.Close() }()
	port := l.LocalAddr().(*net.UDPAddr).Port

	l2, err := NewUDPPortRoll(port)
	if err != nil {
		t.Fatalf("expected no port error, got %v", err)
	}
	defer func() { _ = l2.Close() }()
	if l2.LocalAddr().(*net.UDPAddr).Port == port {
		t.Errorf("port was not rolled")
	}
}
