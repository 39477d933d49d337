package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/gridlaunch/internal/component"
)

// ProbeProps defines the HttpProbe properties.
type ProbeProps struct {
	URL          string `prop:"url"`
	Method       string `prop:"method"`
	Client       string `prop:"client"`
	ExpectStatus int    `prop:"expect_status"`
}

// Probe requests a URL for every event. It writes <name>.status and
// <name>.latency_ms into the event.
type Probe struct {
	component.Base
	props  ProbeProps
	client *http.Client
	// owned is set when the probe created client itself rather than
	// sharing an HttpClient service.
	owned bool
}

// NewProbe creates the algorithm, resolving the client service if named.
func NewProbe(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*ProbeProps)
	if p.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	p.Method = strings.ToUpper(p.Method)

	if p.Client == "" {
		client := newHTTPClient(30*time.Second, 10)
		return &Probe{Base: component.Base{InstanceName: env.Name}, props: p, client: client, owned: true}, nil
	}

	svc, ok := env.Service(p.Client)
	if !ok {
		return nil, fmt.Errorf("client service '%s' is not configured", p.Client)
	}
	shared, ok := svc.(*Client)
	if !ok {
		return nil, fmt.Errorf("service '%s' is not an HttpClient", p.Client)
	}
	return &Probe{Base: component.Base{InstanceName: env.Name}, props: p, client: shared.HTTP}, nil
}

// Finalize closes the idle connections of a client the probe created. A
// shared client is closed by its HttpClient service.
func (p *Probe) Finalize(ctx context.Context) error {
	if p.owned {
		p.client.CloseIdleConnections()
	}
	return nil
}

// Execute implements component.Algorithm.
func (p *Probe) Execute(ctx context.Context, evt *component.Event) error {
	req, err := http.NewRequestWithContext(ctx, p.props.Method, p.props.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	evt.Put(p.Name()+".status", resp.StatusCode)
	evt.Put(p.Name()+".latency_ms", time.Since(start).Milliseconds())

	switch {
	case p.props.ExpectStatus > 0 && resp.StatusCode != p.props.ExpectStatus:
		return fmt.Errorf("expected status %d, got %s", p.props.ExpectStatus, resp.Status)
	case p.props.ExpectStatus == 0 && resp.StatusCode >= 400:
		return fmt.Errorf("request failed with status %s", resp.Status)
	}
	return nil
}
