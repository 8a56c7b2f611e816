package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/loop"
)

type applied struct {
	frame int
	on    bool
	note  int
}

// countingInstrument records which frame each event was applied on.
type countingInstrument struct {
	frames int
	events []applied
}

func (c *countingInstrument) Apply(e *event.Event) {
	c.events = append(c.events, applied{frame: c.frames, on: e.IsNoteOn(), note: e.Data1()})
}

func (c *countingInstrument) RenderFrame() (float32, float32) {
	c.frames++
	return 0.25, -0.25
}

func TestExecutorInline(t *testing.T) {
	x := NewExecutor()
	n := 0
	if err := x.Do(bg, func() error { n++; return nil }); err != nil || n != 1 {
		t.Fatalf("inline do = %d, %v", n, err)
	}
	boom := errors.New("boom")
	if err := x.Do(bg, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected the command error, got %v", err)
	}
	if err := x.Do(bg, func() error { panic("bad") }); err == nil {
		t.Fatalf("expected a panic to become an error")
	}
	if err := x.Do(bg, func() error { return nil }); err != nil {
		t.Fatalf("executor unusable after panic: %v", err)
	}
}

func TestExecutorAttached(t *testing.T) {
	x := NewExecutor()
	x.Attach()
	if !x.Attached() {
		t.Fatalf("attach not recorded")
	}

	ctx, cancel := context.WithTimeout(bg, 20*time.Millisecond)
	defer cancel()
	if err := x.Do(ctx, func() error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout without a transport, got %v", err)
	}
	x.Drain()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				x.Drain()
				time.Sleep(time.Millisecond)
			}
		}
	}()

	total := 0
	for i := 1; i <= 10; i++ {
		v := i
		if err := x.Do(bg, func() error { total += v; return nil }); err != nil {
			t.Fatalf("do: %v", err)
		}
	}
	close(stop)
	wg.Wait()
	if total != 55 {
		t.Fatalf("total = %d", total)
	}
	x.Detach()
	if x.Attached() {
		t.Fatalf("detach not recorded")
	}
}

func TestExecutorTimedOutCommandNeverRuns(t *testing.T) {
	x := NewExecutor()
	x.Attach()

	ran := false
	ctx, cancel := context.WithTimeout(bg, 10*time.Millisecond)
	defer cancel()
	if err := x.Do(ctx, func() error { ran = true; return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout, got %v", err)
	}
	x.Drain()
	if ran {
		t.Fatalf("command ran after Do reported failure")
	}
}

func TestExecutorDetachWhileQueueFull(t *testing.T) {
	x := NewExecutor()
	x.Attach()
	for i := 0; i < commandQueueSize; i++ {
		x.cmds <- &command{fn: func() error { return nil }, done: make(chan error, 1)}
	}

	ran := make(chan error, 1)
	go func() {
		ran <- x.Do(bg, func() error { return nil })
	}()
	time.Sleep(5 * time.Millisecond)

	detached := make(chan struct{})
	go func() {
		x.Detach()
		close(detached)
	}()
	select {
	case <-detached:
	case <-time.After(time.Second):
		t.Fatalf("Detach blocked behind a full queue")
	}
	select {
	case err := <-ran:
		if err != nil {
			t.Fatalf("do: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Do never completed after Detach")
	}
}

func TestTimedOutOperationLeavesSequencerUnchanged(t *testing.T) {
	e, err := NewEngine(48000, Options{BlockSize: 32})
	if err != nil {
		t.Fatal(err)
	}
	s, err := e.NewSequencer(bg, "a", "synth", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Attach()

	ctx, cancel := context.WithTimeout(bg, 10*time.Millisecond)
	defer cancel()
	if _, err := s.AddLoop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout, got %v", err)
	}
	e.Process(make([]float32, 64))
	e.Detach()

	if n, _ := s.LoopCount(bg); n != 1 {
		t.Fatalf("loop count = %d after a failed AddLoop", n)
	}
}

func TestEngineRendersSequencedEvents(t *testing.T) {
	var taps int
	e, err := NewEngine(7680, Options{BlockSize: 64, OnEvent: func(string, int, *event.Event) { taps++ }})
	if err != nil {
		t.Fatal(err)
	}
	inst := &countingInstrument{}
	s, err := e.NewSequencer(bg, "lead", "synth", nil, inst)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.NewSequencer(bg, "lead", "synth", nil, nil); !errors.Is(err, ErrOutOfSpec) {
		t.Fatalf("duplicate name should fail, got %v", err)
	}
	s.InsertNote(bg, 0, loop.NoteEntry{Note: 60, Velocity: 100, Length: 4})
	s.SetLoopIDAt(bg, 0, 0)

	// stopped: instruments render, nothing is sequenced
	buf := make([]float32, 2*128)
	e.Process(buf)
	if len(inst.events) != 0 || buf[0] != 0.25 || buf[1] != -0.25 {
		t.Fatalf("stopped engine sequenced %v", inst.events)
	}

	if err := e.Rewind(bg); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(bg); err != nil {
		t.Fatal(err)
	}
	// 60 samples per tick, 960 per line
	start := inst.frames
	buf = make([]float32, 2*960)
	e.Process(buf)

	want := []applied{{frame: start, on: true, note: 60}, {frame: start + 300, on: false, note: 60}}
	if len(inst.events) != len(want) {
		t.Fatalf("events = %v", inst.events)
	}
	for i := range want {
		if inst.events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, inst.events[i], want[i])
		}
	}
	if taps != 2 {
		t.Fatalf("taps = %d", taps)
	}
	st, err := e.Status(bg)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Playing || st.Line != 1 || st.Tick != 0 || st.BPM != DefaultBPM {
		t.Fatalf("status = %+v", st)
	}
}

func TestEngineOperationsWhileAttached(t *testing.T) {
	e, _ := NewEngine(48000, Options{BlockSize: 32})
	s, _ := e.NewSequencer(bg, "a", "synth", nil, &countingInstrument{})
	e.Attach()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, 64)
		for {
			select {
			case <-stop:
				return
			default:
				e.Process(buf)
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()

	if err := e.SetBPM(bg, 140); err != nil {
		t.Fatal(err)
	}
	if err := e.SetBPM(bg, 500); !errors.Is(err, ErrOutOfSpec) {
		t.Fatalf("expected ErrOutOfSpec, got %v", err)
	}
	if err := e.Play(bg); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddLoop(bg); err != nil {
		t.Fatal(err)
	}
	st, err := e.Status(bg)
	close(stop)
	wg.Wait()
	e.Detach()

	if err != nil || st.BPM != 140 || !st.Playing {
		t.Fatalf("status = %+v, %v", st, err)
	}
	if n, _ := s.LoopCount(bg); n != 2 {
		t.Fatalf("loop count = %d", n)
	}
	seqs, _ := e.Sequencers(bg)
	if len(seqs) != 1 || seqs[0] != s {
		t.Fatalf("sequencers = %v", seqs)
	}
	if err := e.RemoveSequencer(bg, "a"); err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveSequencer(bg, "a"); !errors.Is(err, ErrOutOfSpec) {
		t.Fatalf("expected ErrOutOfSpec, got %v", err)
	}
}
