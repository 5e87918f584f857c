package ws

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type backend struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newBackend(t *testing.T) *backend {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	b := &backend{conns: make(chan *websocket.Conn, 1)}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.conns <- conn
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) wsURL() string {
	return "ws" + strings.TrimPrefix(b.URL, "http") + "/chat/ws"
}

func (b *backend) accept(t *testing.T) *websocket.Conn {
	select {
	case conn := <-b.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(time.Second):
		t.Fatal("backend did not receive a connection")
		return nil
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestConnection_Open_SendsSessionInitFirst(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{})
	defer conn.Close()

	err := conn.Open(context.Background(), b.wsURL(), lo.ToPtr("chat-42"))
	req.NoError(err)
	req.Equal(Open, conn.State())
	server := b.accept(t)

	req.NoError(conn.Send(domain.NewUpdateCommand("m1", "hi!")))

	// Then the raw chat id precedes any JSON command
	req.Equal("chat-42", readFrame(t, server))
	var cmd map[string]any
	req.NoError(json.Unmarshal([]byte(readFrame(t, server)), &cmd))
	req.Equal("m1", cmd["id"])
	req.Equal(true, cmd["is_update"])
}

func TestConnection_Open_WithoutChatIDSendsNoInitFrame(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{})
	defer conn.Close()

	req.NoError(conn.Open(context.Background(), b.wsURL(), nil))
	server := b.accept(t)
	req.NoError(conn.Send(domain.NewCreateCommand("self", lo.ToPtr("hi"), nil, nil)))

	req.True(strings.HasPrefix(readFrame(t, server), "{"))
}

func TestConnection_DeliversFramesInOrder(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	var mu sync.Mutex
	var received []string
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{
		OnFrame: func(frame []byte) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, string(frame))
		},
	})
	defer conn.Close()

	req.NoError(conn.Open(context.Background(), b.wsURL(), nil))
	server := b.accept(t)
	for i := 0; i < 5; i++ {
		req.NoError(server.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("frame-%d", i))))
	}

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 5
	}, time.Second, 10*time.Millisecond)
	req.Equal([]string{"frame-0", "frame-1", "frame-2", "frame-3", "frame-4"}, received)
}

func TestConnection_Send_DroppedWhileNotOpen(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dialer := mocks.NewMockDialer(ctrl)
	transport := mocks.NewMockConn(ctrl)
	conn := NewConnection(discard(), dialer, Handlers{})

	dialing := make(chan struct{})
	release := make(chan struct{})
	closed := make(chan struct{})
	var closeOnce sync.Once

	dialer.EXPECT().Dial(gomock.Any(), "ws://chat/ws").DoAndReturn(
		func(ctx context.Context, url string) (contract.Conn, error) {
			close(dialing)
			<-release
			return transport, nil
		}).Times(1)
	transport.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
		<-closed
		return 0, nil, fmt.Errorf("use of closed connection")
	}).AnyTimes()
	transport.EXPECT().Close().DoAndReturn(func() error {
		closeOnce.Do(func() { close(closed) })
		return nil
	}).AnyTimes()
	// Then nothing is ever written
	transport.EXPECT().WriteMessage(gomock.Any(), gomock.Any()).Times(0)

	// Given an idle connection
	req.NoError(conn.Send(domain.NewUpdateCommand("m1", "idle")))

	// Given a connection stuck in Connecting
	opened := make(chan error, 1)
	go func() { opened <- conn.Open(context.Background(), "ws://chat/ws", nil) }()
	<-dialing
	req.Equal(Connecting, conn.State())
	req.NoError(conn.Send(domain.NewUpdateCommand("m1", "connecting")))

	// When the dial completes and the connection is closed afterwards
	close(release)
	req.NoError(<-opened)
	conn.Close()
	<-conn.Done()

	// Then sends after close are dropped as well
	req.NoError(conn.Send(domain.NewUpdateCommand("m1", "closed")))
	req.Equal(Closed, conn.State())
}

func TestConnection_Open_DialFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dialer := mocks.NewMockDialer(ctrl)
	conn := NewConnection(discard(), dialer, Handlers{})

	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("connection refused")).Times(1)

	err := conn.Open(context.Background(), "ws://chat/ws", lo.ToPtr("chat-42"))
	req.ErrorIs(err, errors.ErrTransport)
	req.Equal(Errored, conn.State())
	<-conn.Done()

	// A connection is single use
	err = conn.Open(context.Background(), "ws://chat/ws", nil)
	req.ErrorIs(err, errors.ErrInvalidState)
}

func TestConnection_Close_DuringConnecting(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dialer := mocks.NewMockDialer(ctrl)
	transport := mocks.NewMockConn(ctrl)
	conn := NewConnection(discard(), dialer, Handlers{})

	dialing := make(chan struct{})
	release := make(chan struct{})
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, url string) (contract.Conn, error) {
			close(dialing)
			<-release
			return transport, nil
		}).Times(1)
	// Then the late transport is released right away
	transport.EXPECT().Close().Return(nil).Times(1)

	opened := make(chan error, 1)
	go func() { opened <- conn.Open(context.Background(), "ws://chat/ws", lo.ToPtr("chat-42")) }()
	<-dialing
	conn.Close()
	close(release)

	req.ErrorIs(<-opened, errors.ErrClosed)
	req.Equal(Closed, conn.State())
}

func TestConnection_Close_IsIdempotent(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{})
	req.NoError(conn.Open(context.Background(), b.wsURL(), nil))
	b.accept(t)

	conn.Close()
	conn.Close()

	req.Equal(Closed, conn.State())
	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		req.Fail("read loop did not stop")
	}
}

func TestConnection_RemoteFailureIsReported(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	errs := make(chan error, 1)
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{
		OnError: func(err error) { errs <- err },
	})
	defer conn.Close()

	req.NoError(conn.Open(context.Background(), b.wsURL(), nil))
	server := b.accept(t)

	// When the backend drops the TCP connection without a close frame
	req.NoError(server.UnderlyingConn().Close())

	select {
	case err := <-errs:
		req.ErrorIs(err, errors.ErrTransport)
	case <-time.After(time.Second):
		req.Fail("error was not reported")
	}
	req.Equal(Errored, conn.State())

	// And no reconnect happens: sends are dropped
	req.NoError(conn.Send(domain.NewUpdateCommand("m1", "late")))
}

func TestConnection_RemoteNormalClose(t *testing.T) {
	req := require.New(t)
	b := newBackend(t)
	closed := make(chan struct{})
	conn := NewConnection(discard(), NewGorillaDialer(time.Second, nil), Handlers{
		OnClose: func() { close(closed) },
		OnError: func(err error) { req.Fail("unexpected error", err) },
	})
	defer conn.Close()

	req.NoError(conn.Open(context.Background(), b.wsURL(), nil))
	server := b.accept(t)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	req.NoError(server.WriteMessage(websocket.CloseMessage, msg))

	select {
	case <-closed:
	case <-time.After(time.Second):
		req.Fail("close was not reported")
	}
	req.Equal(Closed, conn.State())
}

// recordingConn keeps every written frame in order.
type recordingConn struct {
	mu     sync.Mutex
	frames []string
	closed chan struct{}
	once   sync.Once
}

func newRecordingConn() *recordingConn {
	return &recordingConn{closed: make(chan struct{})}
}

func (r *recordingConn) ReadMessage() (int, []byte, error) {
	<-r.closed
	return 0, nil, fmt.Errorf("use of closed connection")
}

func (r *recordingConn) WriteMessage(_ int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, string(data))
	return nil
}

func (r *recordingConn) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func (r *recordingConn) written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func TestConnection_Open_InitFrameWinsOverConcurrentSends(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	for run := 0; run < 500; run++ {
		transport := newRecordingConn()
		dialer := mocks.NewMockDialer(ctrl)
		dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(transport, nil).Times(1)
		conn := NewConnection(discard(), dialer, Handlers{})

		// Given senders hammering the connection while it opens
		stop := make(chan struct{})
		var senders sync.WaitGroup
		for i := 0; i < 4; i++ {
			senders.Add(1)
			go func() {
				defer senders.Done()
				for {
					select {
					case <-stop:
						return
					default:
						_ = conn.Send(domain.NewCreateCommand("self", lo.ToPtr("hi"), nil, nil))
					}
				}
			}()
		}

		// When the connection opens with a chat id
		req.NoError(conn.Open(context.Background(), "ws://chat/ws", lo.ToPtr("chat-1")))
		req.Eventually(func() bool { return len(transport.written()) > 1 }, time.Second, time.Millisecond)
		close(stop)
		senders.Wait()
		conn.Close()
		<-conn.Done()

		// Then the chat id is always the first frame on the wire
		req.Equal("chat-1", transport.written()[0], "run %d", run)
	}
}
