// Package lich implements LICH reassembly: reconstructing a stream's
// Link Setup Frame from the 5-way chunk rotation carried in
// consecutive RF stream frames (§4.L).
package lich

import (
	"github.com/m17-go/m17/pkg/address"
	"github.com/m17-go/m17/pkg/lsf"
	"github.com/m17-go/m17/pkg/m17err"
)

const slots = 5

// identity is the (stream_id, src, dst, type) tuple whose change
// forces a collector reset.
type identity struct {
	streamID  uint16
	src       address.Address
	dst       address.Address
	typeField uint16
	set       bool
}

// Collector accumulates the 5 LICH chunks of one stream transmission
// and reconstructs the originating LSF once all slots are filled.
type Collector struct {
	chunks [slots]*[6]byte
	id     identity
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Reset clears all slots, discarding any partial reassembly.
func (c *Collector) Reset() {
	for i := range c.chunks {
		c.chunks[i] = nil
	}
	c.id = identity{}
}

// AddChunk installs a 6-byte LICH chunk into slot frameNumber mod 5.
// If streamID/src/dst/typeField differ from the transmission this
// collector was tracking, it resets first.
func (c *Collector) AddChunk(chunk [6]byte, frameNumber uint16, streamID uint16, src, dst address.Address, typeField uint16) {
	next := identity{streamID: streamID, src: src, dst: dst, typeField: typeField, set: true}
	if c.id.set && c.id != next {
		c.Reset()
	}
	c.id = next

	slot := int(frameNumber) % slots
	cp := chunk
	c.chunks[slot] = &cp
}

// ChunksReceived reports how many of the 5 slots are populated.
func (c *Collector) ChunksReceived() int {
	n := 0
	for _, ch := range c.chunks {
		if ch != nil {
			n++
		}
	}
	return n
}

// IsComplete reports whether all 5 slots are populated.
func (c *Collector) IsComplete() bool {
	return c.ChunksReceived() == slots
}

// LSF reconstructs the LSF from the 5 collected chunks, dropping the
// 2 pad bytes appended during distribution.
func (c *Collector) LSF() (*lsf.LSF, error) {
	if !c.IsComplete() {
		return nil, m17err.ErrDecodeFailure
	}
	data := make([]byte, 0, 30)
	for _, ch := range c.chunks {
		data = append(data, ch[:]...)
	}
	return lsf.FromBytes(data[:lsf.Size], false)
}
