// Package bridge relays an M17 stream received on one reflector
// connection to a second reflector connection — a cross-module
// repeater link — gated by an ACL and supervised by a stream timeout,
// adapted from a DMR conference-bridge router's stream deduplication
// and rule-timer machinery.
package bridge

import (
	"fmt"
	"sync"
	"time"
)

// streamState tracks one in-progress relayed stream, keyed by its
// stream_id combined with the originating link name, so the same
// numeric stream_id from two different sources is not conflated.
type streamState struct {
	streamID  uint16
	srcLink   string
	startedAt time.Time
	lastFrame time.Time
	frames    int
}

// StreamTracker deduplicates and times out active relayed streams. A
// stream is considered ended when an EOT frame (frame_number bit 15
// set) is relayed, or when no frame arrives within the configured
// idle timeout — guarding against a source that never sends EOT.
type StreamTracker struct {
	mu      sync.Mutex
	streams map[string]*streamState // key: srcLink + streamID
	timers  map[string]*time.Timer
}

// NewStreamTracker creates an empty tracker.
func NewStreamTracker() *StreamTracker {
	return &StreamTracker{
		streams: make(map[string]*streamState),
		timers:  make(map[string]*time.Timer),
	}
}

func streamKey(srcLink string, streamID uint16) string {
	return fmt.Sprintf("%s:%d", srcLink, streamID)
}

// Begin records a new stream's start, returning false if the stream
// is already tracked (a duplicate relay attempt for an in-progress
// stream, which the caller should not re-announce).
func (t *StreamTracker) Begin(srcLink string, streamID uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := streamKey(srcLink, streamID)
	if _, exists := t.streams[key]; exists {
		return false
	}
	now := time.Now()
	t.streams[key] = &streamState{streamID: streamID, srcLink: srcLink, startedAt: now, lastFrame: now}
	return true
}

// Touch records that a frame for this stream was just relayed, and
// reports whether the stream was already tracked.
func (t *StreamTracker) Touch(srcLink string, streamID uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := streamKey(srcLink, streamID)
	s, exists := t.streams[key]
	if !exists {
		return false
	}
	s.lastFrame = time.Now()
	s.frames++
	return true
}

// End removes a stream from tracking (EOT observed, or forced by a
// timeout) and reports how long it ran and how many frames it carried.
func (t *StreamTracker) End(srcLink string, streamID uint16) (time.Duration, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := streamKey(srcLink, streamID)
	s, exists := t.streams[key]
	if !exists {
		return 0, 0, false
	}
	delete(t.streams, key)
	return time.Since(s.startedAt), s.frames, true
}

// Active reports the number of streams currently tracked.
func (t *StreamTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.streams)
}

// SetIdleTimeout arms (or refreshes) a timer that calls onTimeout if
// no frame for this stream arrives within d. Calling it again refreshes
// the timer and ClearIdleTimeout cancels it; it self-removes once
// fired. The timer does not end the stream itself: onTimeout does that
// by calling End.
func (t *StreamTracker) SetIdleTimeout(srcLink string, streamID uint16, d time.Duration, onTimeout func()) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := streamKey(srcLink, streamID)
	if existing, ok := t.timers[key]; ok {
		existing.Stop()
	}
	t.timers[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		onTimeout()
	})
}

// ClearIdleTimeout cancels a pending idle timer for a stream.
func (t *StreamTracker) ClearIdleTimeout(srcLink string, streamID uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := streamKey(srcLink, streamID)
	if existing, ok := t.timers[key]; ok {
		existing.Stop()
		delete(t.timers, key)
	}
}

// StopAll cancels every pending idle timer, used on shutdown.
func (t *StreamTracker) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.timers {
		timer.Stop()
	}
	t.timers = make(map[string]*time.Timer)
}
