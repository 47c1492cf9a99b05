package store

import (
	"time"

	"gorm.io/gorm"
)

// SessionRepository handles session-history database operations.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create adds a new session record.
func (r *SessionRepository) Create(s *Session) error {
	return r.db.Create(s).Error
}

// GetRecent retrieves the most recent N sessions.
func (r *SessionRepository) GetRecent(limit int) ([]Session, error) {
	var sessions []Session
	err := r.db.Order("start_time DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// GetRecentPaginated retrieves sessions with pagination.
func (r *SessionRepository) GetRecentPaginated(page, perPage int) ([]Session, int64, error) {
	var sessions []Session
	var total int64

	if err := r.db.Model(&Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	err := r.db.Order("start_time DESC").
		Offset(offset).
		Limit(perPage).
		Find(&sessions).Error

	return sessions, total, err
}

// GetByCallsign retrieves sessions originated by a given source
// callsign.
func (r *SessionRepository) GetByCallsign(callsign string, limit int) ([]Session, error) {
	var sessions []Session
	err := r.db.Where("src_callsign = ?", callsign).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// GetByReflector retrieves sessions relayed through a given reflector
// connection.
func (r *SessionRepository) GetByReflector(reflector string, limit int) ([]Session, error) {
	var sessions []Session
	err := r.db.Where("reflector = ?", reflector).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// GetByTimeRange retrieves sessions within a time range.
func (r *SessionRepository) GetByTimeRange(start, end time.Time, limit int) ([]Session, error) {
	var sessions []Session
	err := r.db.Where("start_time BETWEEN ? AND ?", start, end).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// DeleteOlderThan deletes sessions older than the specified time.
func (r *SessionRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("start_time < ?", before).Delete(&Session{})
	return result.RowsAffected, result.Error
}

// GetActiveStreamIDs retrieves stream IDs seen ending within the last
// withinSeconds.
func (r *SessionRepository) GetActiveStreamIDs(withinSeconds int) ([]uint32, error) {
	var streamIDs []uint32
	cutoff := time.Now().Add(-time.Duration(withinSeconds) * time.Second)

	err := r.db.Model(&Session{}).
		Where("end_time > ?", cutoff).
		Distinct("stream_id").
		Pluck("stream_id", &streamIDs).Error

	return streamIDs, err
}

// ReflectorDirectoryRepository handles known-reflector directory
// database operations.
type ReflectorDirectoryRepository struct {
	db *gorm.DB
}

// NewReflectorDirectoryRepository creates a new directory repository.
func NewReflectorDirectoryRepository(db *gorm.DB) *ReflectorDirectoryRepository {
	return &ReflectorDirectoryRepository{db: db}
}

// Upsert inserts or updates a known reflector entry keyed by
// designator.
func (r *ReflectorDirectoryRepository) Upsert(entry *KnownReflector) error {
	entry.UpdatedAt = time.Now()
	return r.db.Save(entry).Error
}

// UpsertBatch upserts multiple directory entries in batches of
// batchSize, all within one transaction.
func (r *ReflectorDirectoryRepository) UpsertBatch(entries []KnownReflector, batchSize int) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for i := range entries {
		entries[i].UpdatedAt = now
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(entries); i += batchSize {
			end := i + batchSize
			if end > len(entries) {
				end = len(entries)
			}
			batch := entries[i:end]
			if err := tx.Save(&batch).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of known reflectors in the directory.
func (r *ReflectorDirectoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&KnownReflector{}).Count(&count).Error
	return count, err
}

// All retrieves the full known-reflector directory.
func (r *ReflectorDirectoryRepository) All() ([]KnownReflector, error) {
	var reflectors []KnownReflector
	err := r.db.Order("designator ASC").Find(&reflectors).Error
	return reflectors, err
}

// Find retrieves a single known reflector by its designator.
func (r *ReflectorDirectoryRepository) Find(designator string) (*KnownReflector, error) {
	var entry KnownReflector
	if err := r.db.Where("designator = ?", designator).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
