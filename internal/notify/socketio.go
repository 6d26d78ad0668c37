package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOConfig addresses a socket.io endpoint.
type SocketIOConfig struct {
	// URL is the full endpoint, e.g. http://localhost:3000/socket.io/.
	URL                string
	Namespace          string
	Event              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// SocketIO emits every event as one socket.io message on a single long-lived
// connection.
type SocketIO struct {
	event string

	mu     sync.Mutex
	emit   func(event string, payload any)
	close  func()
	closed bool
}

// splitURL separates the socket.io endpoint into the manager base URL and
// the engine.io path.
func splitURL(raw string) (base, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("socket.io URL %q needs a scheme and host", raw)
	}
	path = u.Path
	if path == "" {
		path = "/socket.io/"
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), path, nil
}

// DialSocketIO connects to cfg.URL and waits for the namespace to accept the
// connection, failing on connect_error or after cfg.Timeout.
func DialSocketIO(ctx context.Context, cfg SocketIOConfig) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", cfg.URL, "namespace", cfg.Namespace)

	baseURL, path, err := splitURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socket.io connect failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("socket.io connect failed: %w", e)
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	io.Connect()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	select {
	case <-dialCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, err
		}
	}

	return &SocketIO{
		event: cfg.Event,
		emit:  func(event string, payload any) { io.Emit(event, payload) },
		close: func() { io.Disconnect() },
	}, nil
}

// Notify emits ev under the configured event name.
func (s *SocketIO) Notify(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		ctxlog.FromContext(ctx).Debug("Dropping event on closed socket.io notifier.", "event", ev.Type)
		return
	}
	s.emit(s.event, ev)
}

// Close disconnects the client. Later events are dropped.
func (s *SocketIO) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.close()
}
