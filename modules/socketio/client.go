package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ClientProps defines the SocketIOClient properties.
type ClientProps struct {
	URL                string `prop:"url"`
	Namespace          string `prop:"namespace"`
	InsecureSkipVerify bool   `prop:"insecure_skip_verify"`
	ConnectTimeout     string `prop:"connect_timeout"`
}

// Client owns one socket. It connects in Initialize, which runs before any
// algorithm is initialized.
type Client struct {
	component.Base
	props   ClientProps
	timeout time.Duration
	logger  *slog.Logger

	io *socket.Socket
}

// NewClient creates the service without connecting.
func NewClient(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*ClientProps)
	if p.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	timeout, err := time.ParseDuration(p.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid connect_timeout: %w", err)
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Base:    component.Base{InstanceName: env.Name},
		props:   p,
		timeout: timeout,
		logger:  logger.With("url", p.URL),
	}, nil
}

// Initialize connects and waits for the connect or connect_error event.
func (c *Client) Initialize(ctx context.Context) error {
	parsedURL, err := url.Parse(c.props.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("url %q needs a scheme and a host", c.props.URL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if c.props.InsecureSkipVerify {
		c.logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(c.props.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connectChan <- err
				return
			}
		}
		connectChan <- fmt.Errorf("connect_error: %v", errs)
	})

	c.logger.Debug("Connecting socket.io client.", "namespace", c.props.Namespace)
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(c.timeout):
		io.Disconnect()
		return fmt.Errorf("timed out after %s waiting for socket.io connection", c.timeout)
	}

	c.io = io
	c.logger.Info("Socket.io client connected.", "sid", io.Id())
	return nil
}

// Finalize disconnects.
func (c *Client) Finalize(ctx context.Context) error {
	if c.io == nil {
		return nil
	}
	c.logger.Info("Disconnecting socket.io client.", "sid", c.io.Id())
	c.io.Disconnect()
	return nil
}

// Socket returns the connected socket, or nil before Initialize.
func (c *Client) Socket() *socket.Socket {
	return c.io
}
