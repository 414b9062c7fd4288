package relay

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

// peer is one websocket connection attached to a channel bus.
type peer struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *logrus.Entry
}

// deliver queues e for the connection. Envelopes for a slow peer are dropped.
func (p *peer) deliver(e protocol.Envelope) {
	data, err := protocol.Encode(e)
	if err != nil {
		p.logger.Warnf("encode: %s", err)
		return
	}

	select {
	case p.send <- data:
	case <-p.done:
	default:
		p.logger.Warnf("dropping %s: peer too slow", e.Command())
	}
}

// readPump posts every valid frame on the bus until the connection fails.
func (p *peer) readPump(bus *transport.Bus, pingInterval time.Duration) {
	defer p.ws.Close()

	pongWait := 2 * pingInterval
	p.ws.SetReadLimit(maxMessageSize)
	_ = p.ws.SetReadDeadline(time.Now().Add(pongWait))
	p.ws.SetPongHandler(func(string) error {
		return p.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Debugf("read: %s", err)
			}
			return
		}
		_ = p.ws.SetReadDeadline(time.Now().Add(pongWait))

		e, err := protocol.Decode(message)
		if err != nil {
			p.logger.Debugf("dropping frame: %s", err)
			continue
		}

		if err := bus.Post(e); err != nil {
			return
		}
	}
}

// writePump writes queued envelopes and keeps the connection alive with pings.
func (p *peer) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = p.ws.Close()
	}()

	for {
		select {
		case <-p.done:
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-p.send:
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
