package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/plugin"
)

// Cursor plugin action names.
const (
	ActionMove      = "move"
	ActionMouseDown = "mouse-down"
	ActionMouseUp   = "mouse-up"
)

// Binding event names for press and release. Gesture commands use their own name.
const (
	EventPress   = "press"
	EventRelease = "release"
)

// DefaultQueueSize is the number of ordered commands the dispatcher buffers.
const DefaultQueueSize = 64

// DefaultCursorPlugin is the plugin that moves the host cursor.
const DefaultCursorPlugin = "cursor"

// Executor runs one plugin request.
type Executor interface {
	Execute(p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginLookup finds a discovered plugin by name.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// Binding ties a gesture event to a plugin action.
type Binding struct {
	PluginName string
	ActionName string
	Config     json.RawMessage
}

// BindingResolver returns the bindings for a gesture event name.
type BindingResolver interface {
	Bindings(event string) ([]Binding, error)
}

// DispatcherConfig holds dispatcher settings.
type DispatcherConfig struct {
	QueueSize    int
	CursorPlugin string
}

// DefaultDispatcherConfig returns a DispatcherConfig with default values.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:    DefaultQueueSize,
		CursorPlugin: DefaultCursorPlugin,
	}
}

// DispatcherStats counts what happened to submitted commands.
type DispatcherStats struct {
	Submitted uint64 `json:"submitted"`
	Coalesced uint64 `json:"coalesced"`
	Dropped   uint64 `json:"dropped"`
	Executed  uint64 `json:"executed"`
	Failed    uint64 `json:"failed"`
}

// cursorParams is sent as Request.Params to the cursor plugin.
type cursorParams struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Dispatcher executes commands on a single worker goroutine.
//
// Move commands coalesce: only the latest pending move is kept. Other commands
// keep their order in a bounded queue, and a pending move is queued ahead of
// them so cursor position and clicks stay consistent. When the queue is full
// new commands are dropped.
type Dispatcher struct {
	cfg      DispatcherConfig
	executor Executor
	plugins  PluginLookup
	bindings BindingResolver

	mu      sync.Mutex
	queue   []Command
	pending *Command
	stats   DispatcherStats
	ready   chan struct{}

	missing map[string]bool

	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher. bindings may be nil.
func NewDispatcher(cfg DispatcherConfig, executor Executor, plugins PluginLookup, bindings BindingResolver) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.CursorPlugin == "" {
		cfg.CursorPlugin = DefaultCursorPlugin
	}
	return &Dispatcher{
		cfg:      cfg,
		executor: executor,
		plugins:  plugins,
		bindings: bindings,
		queue:    make([]Command, 0, cfg.QueueSize),
		ready:    make(chan struct{}, 1),
		missing:  make(map[string]bool),
	}
}

// Submit enqueues a command without blocking. It returns false when the
// command was dropped.
func (d *Dispatcher) Submit(cmd Command) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.Submitted++

	if cmd.Kind == CommandMove {
		if d.pending != nil {
			d.stats.Coalesced++
		}
		d.pending = &cmd
		d.signal()
		return true
	}

	if d.pending != nil {
		if len(d.queue) < d.cfg.QueueSize {
			d.queue = append(d.queue, *d.pending)
		} else {
			d.stats.Dropped++
		}
		d.pending = nil
	}

	if len(d.queue) >= d.cfg.QueueSize {
		d.stats.Dropped++
		return false
	}
	d.queue = append(d.queue, cmd)
	d.signal()
	return true
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.done != nil {
		d.mu.Unlock()
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	stop, done := d.stop, d.done
	d.mu.Unlock()

	go func() {
		defer close(done)
		d.run(ctx, stop)
	}()
}

// Stop runs the commands still queued, so a held button is released, then
// stops the worker. Cancelling the Start context instead discards them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel, stop, done := d.cancel, d.stop, d.done
	d.cancel, d.stop, d.done = nil, nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	close(stop)
	<-done
	cancel()
}

// Stats returns a copy of the dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Pending returns the number of commands waiting to run.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.queue)
	if d.pending != nil {
		n++
	}
	return n
}

func (d *Dispatcher) run(ctx context.Context, stop <-chan struct{}) {
	for {
		cmd, ok := d.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-d.ready:
			}
			continue
		}

		if ctx.Err() != nil {
			return
		}

		err := d.execute(cmd)
		d.mu.Lock()
		if err != nil {
			d.stats.Failed++
		} else {
			d.stats.Executed++
		}
		d.mu.Unlock()
		if err != nil && !errors.Is(err, plugin.ErrPluginNotFound) {
			log.Printf("Command %s failed: %v", cmd.Kind, err)
		}
	}
}

// next pops the oldest queued command, then the pending move.
func (d *Dispatcher) next() (Command, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) > 0 {
		cmd := d.queue[0]
		copy(d.queue, d.queue[1:])
		d.queue = d.queue[:len(d.queue)-1]
		return cmd, true
	}
	if d.pending != nil {
		cmd := *d.pending
		d.pending = nil
		return cmd, true
	}
	return Command{}, false
}

func (d *Dispatcher) signal() {
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) execute(cmd Command) error {
	var errs []error

	if action := cursorAction(cmd.Kind); action != "" {
		params, _ := json.Marshal(cursorParams{X: cmd.X, Y: cmd.Y})
		if err := d.invoke(d.cfg.CursorPlugin, &plugin.Request{
			Action:  action,
			Gesture: cmd.Kind.String(),
			Params:  params,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	event := bindingEvent(cmd)
	if event == "" || d.bindings == nil {
		return errors.Join(errs...)
	}

	bindings, err := d.bindings.Bindings(event)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("load bindings for %s: %w", event, err))...)
	}
	for _, b := range bindings {
		params, _ := json.Marshal(cursorParams{X: cmd.X, Y: cmd.Y})
		if err := d.invoke(b.PluginName, &plugin.Request{
			Action:  b.ActionName,
			Gesture: event,
			Config:  b.Config,
			Params:  params,
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invoke executes one request against the named plugin.
func (d *Dispatcher) invoke(name string, req *plugin.Request) error {
	p, err := d.plugins.Get(name)
	if err != nil {
		d.mu.Lock()
		logged := d.missing[name]
		d.missing[name] = true
		d.mu.Unlock()
		if !logged {
			log.Printf("Plugin %q not available: %v", name, err)
		}
		return fmt.Errorf("plugin %s: %w", name, err)
	}

	resp, err := d.executor.Execute(p, req)
	if err != nil {
		return fmt.Errorf("plugin %s action %s: %w", name, req.Action, err)
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s action %s: %s", name, req.Action, resp.Error)
	}
	return nil
}

func cursorAction(k CommandKind) string {
	switch k {
	case CommandMove:
		return ActionMove
	case CommandPress:
		return ActionMouseDown
	case CommandRelease:
		return ActionMouseUp
	default:
		return ""
	}
}

func bindingEvent(cmd Command) string {
	switch cmd.Kind {
	case CommandPress:
		return EventPress
	case CommandRelease:
		return EventRelease
	case CommandGesture, CommandLost:
		return cmd.Gesture
	default:
		return ""
	}
}
