package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m17-go/m17/internal/acl"
	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/metrics"
	"github.com/m17-go/m17/pkg/frame"
	"github.com/m17-go/m17/pkg/reflector"
)

// frameSender is the subset of *reflector.Client a Link needs, so
// tests can substitute a fake.
type frameSender interface {
	SendFrame(*frame.IPFrame) error
}

// Link relays frames received on one named reflector connection to
// another, subject to an optional source ACL, with stream-lifetime
// tracking and an idle timeout that force-ends a stream whose source
// never sent an EOT frame.
type Link struct {
	Name        string
	FromName    string
	ToName      string
	to          frameSender
	acl         *acl.ACL
	idleTimeout time.Duration

	tracker *StreamTracker
	metrics *metrics.Collector
	logger  *logger.Logger
}

// NewLink builds a Link named name, relaying onto `to`, gated by an
// optional ACL (nil permits everything), with streams force-ended
// after idleTimeout of silence (0 disables the guard).
func NewLink(name, fromName, toName string, to frameSender, aclRule *acl.ACL, idleTimeout time.Duration, m *metrics.Collector, log *logger.Logger) *Link {
	return &Link{
		Name:        name,
		FromName:    fromName,
		ToName:      toName,
		to:          to,
		acl:         aclRule,
		idleTimeout: idleTimeout,
		tracker:     NewStreamTracker(),
		metrics:     m,
		logger:      log.WithComponent(fmt.Sprintf("bridge.%s", name)),
	}
}

// Relay is installed as the source reflector.Client's OnFrame handler.
// It applies the ACL, forwards permitted frames to the target link,
// and tracks stream lifetime via the frame number's EOT bit (§3).
func (l *Link) Relay(f *frame.IPFrame) {
	if l.acl != nil && !l.acl.Check(f.Src) {
		l.logger.Debug("dropped frame: ACL denied source",
			logger.Addr("src", f.Src))
		return
	}

	eot := f.FrameNumber&0x8000 != 0
	streamID := f.StreamID

	if l.tracker.Begin(l.FromName, streamID) {
		l.logger.Info("stream started",
			logger.Addr("src", f.Src), logger.Addr("dst", f.Dst),
			logger.Uint("stream_id", uint(f.StreamID)))
		if l.metrics != nil {
			l.metrics.StreamStarted(f.StreamID)
		}
	} else {
		l.tracker.Touch(l.FromName, streamID)
	}

	if l.idleTimeout > 0 {
		l.tracker.SetIdleTimeout(l.FromName, streamID, l.idleTimeout, func() {
			if dur, frames, ok := l.tracker.End(l.FromName, streamID); ok {
				l.logger.Warn("stream idle timeout, forcing end",
					logger.Uint("stream_id", uint(f.StreamID)),
					logger.Int("frames", frames),
					logger.String("duration", dur.String()))
				if l.metrics != nil {
					l.metrics.StreamEnded(f.StreamID)
				}
			}
		})
	}

	if err := l.to.SendFrame(f); err != nil {
		l.logger.Error("relay failed", logger.Error(err))
		return
	}
	if l.metrics != nil {
		l.metrics.FrameSent(frame.IPSize)
		l.metrics.BridgeRouted()
	}

	if eot {
		l.tracker.ClearIdleTimeout(l.FromName, streamID)
		if dur, frames, ok := l.tracker.End(l.FromName, streamID); ok {
			l.logger.Info("stream ended",
				logger.Uint("stream_id", uint(f.StreamID)),
				logger.Int("frames", frames),
				logger.String("duration", dur.String()))
			if l.metrics != nil {
				l.metrics.StreamEnded(f.StreamID)
			}
		}
	}
}

// Router owns a set of named Links and the reflector connections they
// bridge. Each reflector.Client lives for the duration of the
// connection; Router does not own their sockets, and its Shutdown only
// stops the links' idle timers.
type Router struct {
	mu    sync.RWMutex
	links map[string]*Link

	logger *logger.Logger
}

// NewRouter creates an empty Router.
func NewRouter(log *logger.Logger) *Router {
	return &Router{
		links:  make(map[string]*Link),
		logger: log.WithComponent("bridge.router"),
	}
}

// AddLink registers a Link and wires it as the source client's frame
// handler.
func (r *Router) AddLink(l *Link, source *reflector.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[l.Name] = l
	source.OnFrame(l.Relay)
}

// GetLink retrieves a registered Link by name.
func (r *Router) GetLink(name string) *Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.links[name]
}

// ActiveStreams sums the active stream count across every link.
func (r *Router) ActiveStreams() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, l := range r.links {
		total += l.tracker.Active()
	}
	return total
}

// Shutdown stops every link's idle timers, used on process shutdown.
func (r *Router) Shutdown(_ context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.links {
		l.tracker.StopAll()
	}
}
