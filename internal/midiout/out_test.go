package midiout

import (
	"errors"
	"sync"
	"testing"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/padseq-go/internal/event"
)

type fakePort struct {
	mu   sync.Mutex
	msgs []midi.Message
	gate chan struct{}
	fail bool
}

func (f *fakePort) send(m midi.Message) error {
	if f.gate != nil {
		<-f.gate
	}
	if f.fail {
		return errors.New("port gone")
	}
	f.mu.Lock()
	f.msgs = append(f.msgs, m)
	f.mu.Unlock()
	return nil
}

func noteOn(ch, note, vel byte) *event.Event {
	return &event.Event{Data: [event.MaxLength]byte{0x90 | ch, note, vel}, Length: 3}
}

func TestTapForwardsInOrder(t *testing.T) {
	port := &fakePort{}
	o := New(port.send)
	o.Route("bass", 9)

	o.Tap("lead", 0, noteOn(0, 60, 100))
	o.Tap("bass", 3, noteOn(2, 36, 90))
	o.Tap("lead", 7, &event.Event{Data: [event.MaxLength]byte{0x80, 60, 64}, Length: 3})
	o.Close()

	want := []midi.Message{
		midi.NoteOn(0, 60, 100),
		midi.NoteOn(9, 36, 90),
		midi.NoteOffVelocity(0, 60, 64),
	}
	if len(port.msgs) != len(want) {
		t.Fatalf("got %v", port.msgs)
	}
	for i := range want {
		if string(port.msgs[i]) != string(want[i]) {
			t.Fatalf("message %d = % x, want % x", i, port.msgs[i], want[i])
		}
	}
	if sent, dropped, failed := o.Stats(); sent != 3 || dropped != 0 || failed != 0 {
		t.Fatalf("stats = %d %d %d", sent, dropped, failed)
	}
}

func TestTapDropsWhenFull(t *testing.T) {
	port := &fakePort{gate: make(chan struct{})}
	o := New(port.send)
	total := queueSize + 10
	for i := 0; i < total; i++ {
		o.Tap("lead", 0, noteOn(0, byte(i%128), 100))
	}
	close(port.gate)
	o.Close()

	sent, dropped, _ := o.Stats()
	if dropped < 9 {
		t.Fatalf("dropped = %d", dropped)
	}
	if sent+dropped != int64(total) {
		t.Fatalf("sent %d + dropped %d != %d", sent, dropped, total)
	}
}

func TestSendFailuresAreCounted(t *testing.T) {
	port := &fakePort{fail: true}
	o := New(port.send)
	o.Tap("lead", 0, noteOn(0, 60, 100))
	o.Close()
	o.Close()
	if sent, _, failed := o.Stats(); sent != 0 || failed != 1 {
		t.Fatalf("sent=%d failed=%d", sent, failed)
	}
}
