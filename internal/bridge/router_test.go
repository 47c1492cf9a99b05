package bridge

import (
	"testing"
	"time"

	"github.com/m17-go/m17/internal/acl"
	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/metrics"
	"github.com/m17-go/m17/pkg/frame"
	"github.com/m17-go/m17/pkg/reflector"
)

type fakeSender struct {
	sent []*frame.IPFrame
	err  error
}

func (f *fakeSender) SendFrame(fr *frame.IPFrame) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, fr)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestLink_RelayPermitsAndTracksStream(t *testing.T) {
	target := &fakeSender{}
	m := metrics.NewCollector()
	link := NewLink("a-to-b", "a", "b", target, nil, 0, m, testLogger())

	f, err := frame.CreateIPFrame("SP5WWP", "W2FBI", 0x1234, 5, 1, nil, make([]byte, 16))
	if err != nil {
		t.Fatalf("CreateIPFrame: %v", err)
	}

	link.Relay(f)
	if len(target.sent) != 1 {
		t.Fatalf("expected 1 relayed frame, got %d", len(target.sent))
	}
	if m.GetActiveStreams() != 1 {
		t.Fatalf("expected 1 active stream, got %d", m.GetActiveStreams())
	}

	eotFrame, _ := frame.CreateIPFrame("SP5WWP", "W2FBI", 0x1234, 5, 2|0x8000, nil, make([]byte, 16))
	link.Relay(eotFrame)
	if len(target.sent) != 2 {
		t.Fatalf("expected 2 relayed frames, got %d", len(target.sent))
	}
	if m.GetActiveStreams() != 0 {
		t.Fatalf("expected stream to end on EOT, got %d active", m.GetActiveStreams())
	}
	if m.GetBridgeRoutes() != 2 {
		t.Fatalf("expected 2 bridge routes, got %d", m.GetBridgeRoutes())
	}
}

func TestLink_RelayDeniesByACL(t *testing.T) {
	target := &fakeSender{}
	deny, err := acl.Parse("DENY:W2FBI")
	if err != nil {
		t.Fatalf("acl.Parse: %v", err)
	}
	link := NewLink("a-to-b", "a", "b", target, deny, 0, nil, testLogger())

	f, _ := frame.CreateIPFrame("SP5WWP", "W2FBI", 1, 5, 1, nil, make([]byte, 16))
	link.Relay(f)
	if len(target.sent) != 0 {
		t.Fatalf("expected frame to be dropped by ACL, got %d relayed", len(target.sent))
	}
}

func TestStreamTracker_IdleTimeoutForcesEnd(t *testing.T) {
	tracker := NewStreamTracker()
	tracker.Begin("a", 1)

	done := make(chan struct{})
	tracker.SetIdleTimeout("a", 1, 20*time.Millisecond, func() {
		tracker.End("a", 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("idle timeout callback never fired")
	}

	if _, _, ok := tracker.End("a", 1); ok {
		t.Fatal("expected stream to already be force-ended by timeout")
	}
}

func TestStreamTracker_TouchClearsOnEnd(t *testing.T) {
	tracker := NewStreamTracker()
	if !tracker.Begin("a", 7) {
		t.Fatal("expected Begin to report new stream")
	}
	if tracker.Begin("a", 7) {
		t.Fatal("expected second Begin to report duplicate")
	}
	if !tracker.Touch("a", 7) {
		t.Fatal("expected Touch on tracked stream to succeed")
	}
	dur, frames, ok := tracker.End("a", 7)
	if !ok {
		t.Fatal("expected End to find tracked stream")
	}
	if frames != 1 {
		t.Fatalf("expected 1 touched frame, got %d", frames)
	}
	if dur < 0 {
		t.Fatalf("expected non-negative duration, got %v", dur)
	}
}

func TestRouter_AddLinkWiresSourceHandler(t *testing.T) {
	target := &fakeSender{}
	router := NewRouter(testLogger())
	link := NewLink("a-to-b", "a", "b", target, nil, 0, nil, testLogger())

	source, err := reflector.New(reflector.Config{Callsign: "W2FBI", Host: "127.0.0.1", Port: 17000, Module: 'A'})
	if err != nil {
		t.Fatalf("reflector.New: %v", err)
	}
	router.AddLink(link, source)

	if router.GetLink("a-to-b") != link {
		t.Fatal("expected GetLink to return the registered link")
	}

	f, _ := frame.CreateIPFrame("SP5WWP", "W2FBI", 1, 5, 1, nil, make([]byte, 16))
	link.Relay(f)
	if len(target.sent) != 1 {
		t.Fatalf("expected relay to fire, got %d sent", len(target.sent))
	}
}
