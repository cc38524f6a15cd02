package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// wire is the raw socket owned by the pumps: the reader goroutine reads
// and the writer goroutine writes.
type wire struct {
	*websocket.Conn
	writeWait time.Duration
}

// keepAlive caps incoming frames and, when pinging, expects a pong
// before the read deadline.
func (w wire) keepAlive(ping bool) {
	w.SetReadLimit(maxMessageSize)
	if !ping {
		return
	}
	_ = w.SetReadDeadline(time.Now().Add(pongTime))
	w.SetPongHandler(func(string) error { return w.SetReadDeadline(time.Now().Add(pongTime)) })
}

func (w wire) next() ([]byte, error) {
	_, message, err := w.ReadMessage()
	return message, err
}

func (w wire) frame(t int, data []byte) error {
	if err := w.SetWriteDeadline(time.Now().Add(w.writeWait)); err != nil {
		return err
	}
	return w.WriteMessage(t, data)
}

func (w wire) bye() error {
	return w.frame(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
