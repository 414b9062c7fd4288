package relay

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

// Client is a Transport connected to one relay channel. Received envelopes
// are handed to local listeners one at a time, in arrival order.
type Client struct {
	ws     *websocket.Conn
	local  *transport.Bus
	done   chan struct{}
	logger *logrus.Entry

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// ChannelURL builds the websocket URL of channel on the relay at base.
// http and https bases are mapped to ws and wss.
func ChannelURL(base, channel string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url: unsupported scheme %q", u.Scheme)
	}

	return u.JoinPath("channels", channel).String(), nil
}

// Dial connects to channel on the relay at baseURL.
func Dial(ctx context.Context, baseURL, channel string) (*Client, error) {
	target, err := ChannelURL(baseURL, channel)
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &Client{
		ws:     ws,
		local:  transport.NewBus(),
		done:   make(chan struct{}),
		logger: log.With(logrus.Fields{"component": "relay-client", "channel": channel}),
	}
	go c.readLoop()

	return c, nil
}

// Post sends e to every connection of the channel, this one included.
func (c *Client) Post(e protocol.Envelope) error {
	data, err := protocol.Encode(e)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("post %s: %w", e.Command(), err)
	}
	return nil
}

// Listen registers h for envelopes received from the relay.
func (c *Client) Listen(h transport.Handler) (*transport.Subscription, error) {
	return c.local.Listen(h)
}

// Done is closed when the connection to the relay is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close disconnects from the relay.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
	<-c.done
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		_ = c.local.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warnf("read: %s", err)
			}
			return
		}

		e, err := protocol.Decode(message)
		if err != nil {
			c.logger.Debugf("dropping frame: %s", err)
			continue
		}

		if err := c.local.Post(e); err != nil {
			return
		}
	}
}
