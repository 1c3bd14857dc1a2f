// Package transport dispatches the messages that other components (the API,
// the CLI, the options view) send to read and write run state.
package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/runstate"
)

// Actions understood by Handle.
const (
	ActionGet     = "get_data_from_chrome_storage_local"
	ActionStore   = "store_data_to_chrome_storage_local"
	ActionClear   = "clear_data_from_chrome_storage_local"
	ActionStopped = "stopped_via_msg"
	ActionCatch   = "catch_error"

	// recognised but never implemented
	actionTabs     = "open/close_tab"
	actionFirebase = "firebase_*"
)

// NotHandled is the Notice message broadcast for an unknown action.
const NotHandled = "message_not_handled_by_background_script"

const defaultCatchMessage = "No message found - using basic error message from background.js"

// Message is one request. KeysObj is either a list of key names or an
// object whose keys are the key names.
type Message struct {
	Action     string         `json:"action"`
	KeysObj    any            `json:"keysObj,omitempty"`
	DataObj    map[string]any `json:"dataObj,omitempty"`
	Message    string         `json:"message,omitempty"`
	NoCallback bool           `json:"noCallback,omitempty"`
}

// Notice is broadcast to every listener, independent of any request.
type Notice struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// Coordinator owns message dispatch over a run state store.
type Coordinator struct {
	store *runstate.Store
	log   *zap.Logger

	mu   sync.Mutex
	subs map[int]func(Notice)
	next int
}

func New(store *runstate.Store, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: store, log: log, subs: map[int]func(Notice){}}
}

// OnNotice registers fn for every broadcast notice.
func (c *Coordinator) OnNotice(fn func(Notice)) (cancel func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) broadcast(n Notice) {
	c.mu.Lock()
	fns := make([]func(Notice), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

// Handle runs one message and returns the response body. A nil body means
// the caller gets no response: the message had no action, asked for none
// with NoCallback, or its action never answers.
func (c *Coordinator) Handle(ctx context.Context, m Message) (any, error) {
	if m.Action == "" {
		return nil, nil
	}
	var (
		body any
		err  error
	)
	switch m.Action {
	case ActionGet:
		body, err = c.get(ctx, m.KeysObj)
	case ActionStore, ActionClear:
		body, err = c.set(ctx, m.DataObj)
	case ActionStopped:
		body, err = c.store.Set(ctx, runstate.StopValues(m.Message))
	case ActionCatch:
		msg := m.Message
		if msg == "" {
			msg = defaultCatchMessage
		}
		body, err = c.store.Set(ctx, runstate.Values{string(runstate.KeyMessage): msg})
	case actionTabs, actionFirebase:
		c.log.Warn("message action not implemented", zap.String("action", m.Action))
		return nil, nil
	default:
		c.log.Error("message action not handled", zap.String("action", m.Action))
		c.broadcast(Notice{Message: NotHandled, Action: m.Action})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Action, err)
	}
	if m.NoCallback {
		return nil, nil
	}
	return body, nil
}

func (c *Coordinator) get(ctx context.Context, keysObj any) (map[string]any, error) {
	keys, err := keyList(keysObj)
	if err != nil {
		return nil, err
	}
	return c.store.Get(ctx, keys...)
}

func (c *Coordinator) set(ctx context.Context, data map[string]any) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	return c.store.Set(ctx, runstate.Values(data))
}

// keyList accepts nil (every key), a single name, a list of names or an
// object keyed by name.
func keyList(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return runstate.StringKeys(), nil
	case string:
		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		keys := make([]string, 0, len(x))
		for _, k := range x {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: list item %T", ErrBadKeys, k)
			}
			keys = append(keys, s)
		}
		return keys, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrBadKeys, v)
}
