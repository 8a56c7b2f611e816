package sequencer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	commandQueueSize = 64
	enqueueRetry     = time.Millisecond
)

const (
	pending int32 = iota
	claimed
	cancelled
)

// command is claimed by the transport or cancelled by its caller, never
// both. A cancelled command is skipped when drained.
type command struct {
	fn    func() error
	done  chan error
	state atomic.Int32
}

// Executor runs control-plane commands on the transport. While a transport
// is attached, Do queues the command and waits until Drain ran it at the
// start of the next block. Without a transport, commands run on the caller,
// one at a time.
type Executor struct {
	mu       sync.Mutex
	attached bool
	cmds     chan *command
}

func NewExecutor() *Executor {
	return &Executor{cmds: make(chan *command, commandQueueSize)}
}

// Attach hands command execution to the transport.
func (x *Executor) Attach() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.attached = true
}

// Detach takes command execution back. Commands still queued run here.
func (x *Executor) Detach() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.attached = false
	x.Drain()
}

func (x *Executor) Attached() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.attached
}

// Do runs fn on the transport and returns its error. A panic inside fn is
// returned as an error. When ctx ends before the transport picked the
// command up, Do returns ctx.Err() and fn never runs. Once fn has started,
// Do waits for it and returns its result.
func (x *Executor) Do(ctx context.Context, fn func() error) error {
	c := &command{fn: fn, done: make(chan error, 1)}
	for queued := false; !queued; {
		x.mu.Lock()
		if !x.attached {
			defer x.mu.Unlock()
			return run(fn)
		}
		select {
		case x.cmds <- c:
			queued = true
		default:
		}
		x.mu.Unlock()
		if queued {
			break
		}
		// queue full: wait without the lock so Detach can take over
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueRetry):
		}
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		if c.state.CompareAndSwap(pending, cancelled) {
			return ctx.Err()
		}
		return <-c.done
	}
}

// Drain runs every queued command. The transport calls it before each
// block.
func (x *Executor) Drain() {
	for {
		select {
		case c := <-x.cmds:
			if !c.state.CompareAndSwap(pending, claimed) {
				continue
			}
			c.done <- run(c.fn)
		default:
			return
		}
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command failed: %v", r)
		}
	}()
	return fn()
}
