package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/zishang520/engine.io/v2/types"
)

// EmitterProps defines the SocketIOEmitter properties.
type EmitterProps struct {
	Client     string   `prop:"client"`
	Event      string   `prop:"event"`
	Keys       []string `prop:"keys"`
	ReplyEvent string   `prop:"reply_event"`
	Timeout    string   `prop:"timeout"`
}

// Emitter sends event data through a SocketIOClient.
type Emitter struct {
	component.Base
	props   EmitterProps
	client  *Client
	timeout time.Duration
	logger  *slog.Logger

	// exchange serializes request/reply exchanges; mu guards pending.
	exchange sync.Mutex
	mu       sync.Mutex
	pending  *pendingReply
	listener types.Listener
}

// pendingReply is the exchange waiting for the reply to one event.
type pendingReply struct {
	number int64
	reply  chan any
}

// NewEmitter resolves the client service.
func NewEmitter(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*EmitterProps)
	if p.Client == "" {
		return nil, fmt.Errorf("client is required")
	}
	if p.Event == "" {
		return nil, fmt.Errorf("event must not be empty")
	}
	timeout, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	svc, ok := env.Service(p.Client)
	if !ok {
		return nil, fmt.Errorf("client service '%s' is not configured", p.Client)
	}
	client, ok := svc.(*Client)
	if !ok {
		return nil, fmt.Errorf("service '%s' is not a SocketIOClient", p.Client)
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		Base:    component.Base{InstanceName: env.Name},
		props:   p,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Initialize subscribes to the reply event. The client service is
// initialized, and therefore connected, before any algorithm.
func (e *Emitter) Initialize(ctx context.Context) error {
	if e.props.ReplyEvent == "" {
		return nil
	}
	io := e.client.Socket()
	if io == nil {
		return fmt.Errorf("socket.io client '%s' is not connected", e.client.Name())
	}
	e.listener = e.onReply
	return io.On(types.EventName(e.props.ReplyEvent), e.listener)
}

// Finalize unsubscribes from the reply event.
func (e *Emitter) Finalize(ctx context.Context) error {
	if io := e.client.Socket(); io != nil && e.listener != nil {
		io.RemoveListener(types.EventName(e.props.ReplyEvent), e.listener)
		e.listener = nil
	}
	return nil
}

// Execute implements component.Algorithm.
func (e *Emitter) Execute(ctx context.Context, evt *component.Event) error {
	io := e.client.Socket()
	if io == nil || !io.Connected() {
		return fmt.Errorf("socket.io client '%s' is not connected", e.client.Name())
	}

	data := payload(evt, e.props.Keys)
	if e.props.ReplyEvent == "" {
		if err := io.Emit(e.props.Event, data); err != nil {
			return fmt.Errorf("failed to emit '%s': %w", e.props.Event, err)
		}
		return nil
	}
	if e.listener == nil {
		return fmt.Errorf("emitter '%s' is not subscribed to '%s'", e.Name(), e.props.ReplyEvent)
	}

	e.exchange.Lock()
	defer e.exchange.Unlock()

	p := &pendingReply{number: evt.Number, reply: make(chan any, 1)}
	e.setPending(p)
	defer e.clearPending(p)

	if err := io.Emit(e.props.Event, data); err != nil {
		return fmt.Errorf("failed to emit '%s': %w", e.props.Event, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	select {
	case reply := <-p.reply:
		evt.Put(e.Name()+".reply", reply)
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %s waiting for event '%s'", e.timeout, e.props.ReplyEvent)
	}
}

// onReply hands a reply to the waiting exchange. A reply that names another
// event number, or that arrives while nothing waits, belongs to an exchange
// that already timed out and is dropped.
func (e *Emitter) onReply(args ...any) {
	var reply any
	if len(args) > 0 {
		reply = args[0]
	}

	e.mu.Lock()
	p := e.pending
	if p != nil && replyMatches(reply, p.number) {
		e.pending = nil
	} else {
		p = nil
	}
	e.mu.Unlock()

	if p == nil {
		e.logger.Debug("Dropped a reply that matches no pending request.", "instance", e.Name(), "event", e.props.ReplyEvent)
		return
	}
	p.reply <- reply
}

func (e *Emitter) setPending(p *pendingReply) {
	e.mu.Lock()
	e.pending = p
	e.mu.Unlock()
}

func (e *Emitter) clearPending(p *pendingReply) {
	e.mu.Lock()
	if e.pending == p {
		e.pending = nil
	}
	e.mu.Unlock()
}

// replyMatches reports whether reply answers event number. Replies that do
// not echo the "event" field of the payload cannot be told apart and match.
func replyMatches(reply any, number int64) bool {
	obj, ok := reply.(map[string]any)
	if !ok {
		return true
	}
	raw, ok := obj["event"]
	if !ok {
		return true
	}
	switch n := raw.(type) {
	case float64:
		return n == float64(number)
	case int64:
		return n == number
	case int:
		return int64(n) == number
	case uint64:
		return n == uint64(number)
	case json.Number:
		v, err := n.Int64()
		return err == nil && v == number
	}
	return false
}

// payload builds the emitted object: the event number plus the selected keys.
func payload(evt *component.Event, keys []string) map[string]any {
	data := evt.Snapshot()
	out := make(map[string]any, len(data)+1)
	if len(keys) == 0 {
		for k, v := range data {
			out[k] = v
		}
	} else {
		for _, k := range keys {
			if v, ok := data[k]; ok {
				out[k] = v
			}
		}
	}
	out["event"] = evt.Number
	return out
}
