package http_client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/gridlaunch/internal/component"
)

// ClientProps defines the HttpClient properties.
type ClientProps struct {
	Timeout             string `prop:"timeout"`
	MaxIdleConnsPerHost int    `prop:"max_idle_conns_per_host"`
}

// Client is the shared HTTP client service.
type Client struct {
	component.Base
	HTTP *http.Client
}

// NewClient creates the service. The client is live as soon as it is built,
// so algorithms may capture it in their own factories.
func NewClient(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := props.(*ClientProps)
	timeout, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	return &Client{
		Base: component.Base{InstanceName: env.Name},
		HTTP: newHTTPClient(timeout, p.MaxIdleConnsPerHost),
	}, nil
}

func newHTTPClient(timeout time.Duration, idlePerHost int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: idlePerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Finalize closes idle connections.
func (c *Client) Finalize(ctx context.Context) error {
	c.HTTP.CloseIdleConnections()
	return nil
}
