package gate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) Send(msg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]byte, len(msg))
	copy(copied, msg)
	f.frames = append(f.frames, copied)
}

func (f *fakeSender) lastFrame(t *testing.T) openFrame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		t.Fatal("no frames sent")
	}
	var frame openFrame
	if err := json.Unmarshal(f.frames[len(f.frames)-1], &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return frame
}

func withStubID(t *testing.T, id string) {
	t.Helper()
	original := idGenerator
	idGenerator = func() string { return id }
	t.Cleanup(func() { idGenerator = original })
}

func TestOpenAckSuccess(t *testing.T) {
	withStubID(t, "cmd-1")
	d := NewDispatcher(time.Second, zap.NewNop())
	sender := &fakeSender{}
	d.Attach(7, sender)

	done := make(chan error, 1)
	go func() {
		done <- d.Open(context.Background(), 7, "AB-12-CD")
	}()

	waitForFrame(t, sender)
	frame := sender.lastFrame(t)
	if frame.Type != frameOpen || frame.CommandID != "cmd-1" || frame.LicensePlate != "AB-12-CD" {
		t.Fatalf("unexpected frame: %+v", frame)
	}

	d.HandleAck(Ack{CommandID: "cmd-1", Opened: true})

	if err := <-done; err != nil {
		t.Fatalf("Open returned %v, want nil", err)
	}
}

func TestOpenNoController(t *testing.T) {
	d := NewDispatcher(time.Second, zap.NewNop())

	err := d.Open(context.Background(), 7, "AB-12-CD")
	if !errors.Is(err, ErrNoController) {
		t.Fatalf("Open returned %v, want ErrNoController", err)
	}
}

func TestOpenAckTimeout(t *testing.T) {
	withStubID(t, "cmd-1")
	d := NewDispatcher(30*time.Millisecond, zap.NewNop())
	d.Attach(7, &fakeSender{})

	err := d.Open(context.Background(), 7, "AB-12-CD")
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("Open returned %v, want ErrAckTimeout", err)
	}
}

func TestOpenGateFault(t *testing.T) {
	withStubID(t, "cmd-1")
	d := NewDispatcher(time.Second, zap.NewNop())
	sender := &fakeSender{}
	d.Attach(7, sender)

	done := make(chan error, 1)
	go func() {
		done <- d.Open(context.Background(), 7, "AB-12-CD")
	}()

	waitForFrame(t, sender)
	d.HandleAck(Ack{CommandID: "cmd-1", Opened: false, Detail: "barrier jammed"})

	err := <-done
	if !errors.Is(err, ErrGateFault) {
		t.Fatalf("Open returned %v, want ErrGateFault", err)
	}
	if got := err.Error(); got != "gate: controller fault: barrier jammed" {
		t.Fatalf("unexpected error text: %q", got)
	}
}

func TestLateAckIsDropped(t *testing.T) {
	d := NewDispatcher(time.Second, zap.NewNop())
	// must not panic or block
	d.HandleAck(Ack{CommandID: "unknown", Opened: true})
}

func TestDetachKeepsNewerController(t *testing.T) {
	d := NewDispatcher(time.Second, zap.NewNop())
	old := &fakeSender{}
	replacement := &fakeSender{}

	d.Attach(7, old)
	d.Attach(7, replacement)
	d.Detach(7, old)

	if !d.Connected(7) {
		t.Fatal("replacement controller must survive detach of the old one")
	}

	d.Detach(7, replacement)
	if d.Connected(7) {
		t.Fatal("controller must be gone after its own detach")
	}
}

func TestDecodeAck(t *testing.T) {
	ack, err := DecodeAck([]byte(`{"type":"ack","command_id":"c1","status":"opened"}`))
	if err != nil {
		t.Fatalf("DecodeAck: %v", err)
	}
	if !ack.Opened || ack.CommandID != "c1" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	ack, err = DecodeAck([]byte(`{"type":"ack","command_id":"c1","status":"fault","detail":"jam"}`))
	if err != nil {
		t.Fatalf("DecodeAck: %v", err)
	}
	if ack.Opened || ack.Detail != "jam" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	if _, err := DecodeAck([]byte(`{"type":"hello"}`)); err == nil {
		t.Fatal("expected error for non-ack frame")
	}
	if _, err := DecodeAck([]byte(`{"type":"ack","status":"opened"}`)); err == nil {
		t.Fatal("expected error for ack without command_id")
	}
	if _, err := DecodeAck([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func waitForFrame(t *testing.T, sender *fakeSender) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sender.mu.Lock()
		n := len(sender.frames)
		sender.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for frame")
}
