// Package store persists M17 session history and the known-reflector
// directory with GORM over a pure-Go sqlite driver.
package store

import (
	"time"

	"gorm.io/gorm"
)

// Session represents one completed stream transmission observed
// passing through a reflector connection.
type Session struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StreamID    uint32    `gorm:"index;not null" json:"stream_id"`
	SrcCallsign string    `gorm:"index;size:9" json:"src_callsign"`
	DstCallsign string    `gorm:"index;size:9" json:"dst_callsign"`
	TypeField   uint16    `gorm:"not null" json:"type_field"`
	Reflector   string    `gorm:"index;size:64" json:"reflector"`
	Module      string    `gorm:"size:1" json:"module"`
	Duration    float64   `gorm:"not null" json:"duration"` // seconds
	StartTime   time.Time `gorm:"index;not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	FrameCount  int       `gorm:"default:0" json:"frame_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Session.
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate ensures timestamps are populated.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.StartTime.IsZero() {
		s.StartTime = time.Now()
	}
	if s.EndTime.IsZero() {
		s.EndTime = time.Now()
	}
	return nil
}

// KnownReflector is one entry of the periodically synced
// known-reflector directory.
type KnownReflector struct {
	Designator string    `gorm:"primarykey;size:16" json:"designator"` // e.g. "M17-M17"
	Host       string    `gorm:"size:128" json:"host"`
	Port       int       `json:"port"`
	Modules    string    `gorm:"size:32" json:"modules"` // e.g. "ABCDEFGH"
	Sponsor    string    `gorm:"size:64" json:"sponsor"`
	Country    string    `gorm:"size:64" json:"country"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for KnownReflector.
func (KnownReflector) TableName() string {
	return "known_reflectors"
}
