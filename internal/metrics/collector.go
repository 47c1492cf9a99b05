// Package metrics collects m17-relay runtime counters and exposes
// them over a Prometheus text-format HTTP endpoint.
package metrics

import (
	"sync"
)

// Collector collects m17-relay metrics.
type Collector struct {
	mu sync.RWMutex

	// Reflector connection metrics
	totalConnections  uint64
	activeReflectors  map[string]bool

	// Frame metrics
	framesReceived uint64
	framesSent     uint64
	bytesReceived  uint64
	bytesSent      uint64

	// Stream metrics
	activeStreams map[uint16]bool

	// FEC metrics
	golayCorrections uint64
	crcFailures       uint64

	// Bridge metrics
	bridgeRoutes uint64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		activeReflectors: make(map[string]bool),
		activeStreams:    make(map[uint16]bool),
	}
}

// ReflectorConnected records a reflector connection.
func (c *Collector) ReflectorConnected(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalConnections++
	c.activeReflectors[name] = true
}

// ReflectorDisconnected records a reflector disconnection.
func (c *Collector) ReflectorDisconnected(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.activeReflectors, name)
}

// FrameReceived records a received frame.
func (c *Collector) FrameReceived(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.framesReceived++
	c.bytesReceived += uint64(n)
}

// FrameSent records a sent frame.
func (c *Collector) FrameSent(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.framesSent++
	c.bytesSent += uint64(n)
}

// StreamStarted records a stream start keyed by stream_id.
func (c *Collector) StreamStarted(streamID uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeStreams[streamID] = true
}

// StreamEnded records a stream end.
func (c *Collector) StreamEnded(streamID uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.activeStreams, streamID)
}

// GolayCorrection records a Golay codeword that required bit
// correction during LICH decode.
func (c *Collector) GolayCorrection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.golayCorrections++
}

// CRCFailure records a frame that failed CRC validation.
func (c *Collector) CRCFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.crcFailures++
}

// BridgeRouted records a bridge routing event between reflector
// modules.
func (c *Collector) BridgeRouted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bridgeRoutes++
}

// Reset clears gauge-like state (active reflectors/streams); counters
// like totalConnections, framesReceived, etc. are cumulative and are
// not reset.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeReflectors = make(map[string]bool)
	c.activeStreams = make(map[uint16]bool)
}

// GetTotalConnections returns the total number of successful reflector
// connections.
func (c *Collector) GetTotalConnections() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalConnections
}

// GetActiveReflectors returns the number of currently connected
// reflectors.
func (c *Collector) GetActiveReflectors() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activeReflectors)
}

// GetFramesReceived returns total frames received.
func (c *Collector) GetFramesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesReceived
}

// GetFramesSent returns total frames sent.
func (c *Collector) GetFramesSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesSent
}

// GetBytesReceived returns total bytes received.
func (c *Collector) GetBytesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesReceived
}

// GetBytesSent returns total bytes sent.
func (c *Collector) GetBytesSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesSent
}

// GetActiveStreams returns the number of active streams.
func (c *Collector) GetActiveStreams() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activeStreams)
}

// GetGolayCorrections returns total Golay-corrected codewords.
func (c *Collector) GetGolayCorrections() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.golayCorrections
}

// GetCRCFailures returns total CRC validation failures.
func (c *Collector) GetCRCFailures() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.crcFailures
}

// GetBridgeRoutes returns total bridge routing events.
func (c *Collector) GetBridgeRoutes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bridgeRoutes
}
