// Package midiout forwards sequencer events to a MIDI output port. The
// engine tap only queues; a separate goroutine does the sending.
package midiout

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/event"
)

const queueSize = 512

var ErrNoPort = errors.New("midiout: no such port")

// SendFunc delivers one message, as returned by midi.SendTo.
type SendFunc func(midi.Message) error

// Ports lists the output ports of the registered driver.
func Ports() []string {
	var names []string
	for _, p := range midi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}

// Open connects to the first output port whose name contains name.
func Open(name string) (*Out, error) {
	for _, port := range midi.GetOutPorts() {
		if !strings.Contains(port.String(), name) {
			continue
		}
		send, err := midi.SendTo(port)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", port.String())
		}
		debug.Log("midiout", "opened %s", port.String())
		return New(send), nil
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", name)
}

// Out is a bounded queue in front of a SendFunc. Messages that do not fit
// are dropped and counted.
type Out struct {
	send  SendFunc
	queue chan midi.Message
	done  chan struct{}
	once  sync.Once

	// channel overrides per sequencer name
	mu       sync.RWMutex
	channels map[string]uint8

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

func New(send SendFunc) *Out {
	o := &Out{
		send:     send,
		queue:    make(chan midi.Message, queueSize),
		done:     make(chan struct{}),
		channels: map[string]uint8{},
	}
	go o.run()
	return o
}

// Route sends everything the named sequencer produces on channel ch
// instead of the channel stored in its notes.
func (o *Out) Route(sequencer string, ch uint8) {
	o.mu.Lock()
	o.channels[sequencer] = ch & 0x0f
	o.mu.Unlock()
}

// Tap matches sequencer.Tap. It never blocks.
func (o *Out) Tap(sequencer string, _ int, e *event.Event) {
	msg := e.Message()
	o.mu.RLock()
	ch, ok := o.channels[sequencer]
	o.mu.RUnlock()
	if ok && len(msg) > 0 && msg[0] >= 0x80 && msg[0] < 0xf0 {
		msg[0] = msg[0]&0xf0 | ch
	}
	select {
	case o.queue <- msg:
	default:
		if o.dropped.Add(1)%100 == 1 {
			debug.Log("midiout", "queue full, dropped %d", o.dropped.Load())
		}
	}
}

func (o *Out) run() {
	defer close(o.done)
	for msg := range o.queue {
		if err := o.send(msg); err != nil {
			o.failed.Add(1)
			debug.LogEvery(50, "midiout", "send: %v", err)
			continue
		}
		o.sent.Add(1)
	}
}

// Stats reports delivered, dropped and failed messages.
func (o *Out) Stats() (sent, dropped, failed int64) {
	return o.sent.Load(), o.dropped.Load(), o.failed.Load()
}

// Close flushes the queue and stops the sender. Tap must not be called
// afterwards.
func (o *Out) Close() {
	o.once.Do(func() {
		close(o.queue)
		<-o.done
	})
}
