package ws

import (
	"chat-sync/contract"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer opens websocket transports with gorilla/websocket.
type GorillaDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func NewGorillaDialer(handshakeTimeout time.Duration, header http.Header) GorillaDialer {
	return GorillaDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: header,
	}
}

func (d GorillaDialer) Dial(ctx context.Context, url string) (contract.Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
