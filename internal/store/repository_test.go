package store

import (
	"os"
	"testing"
	"time"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	db, err := New(Config{Path: path}, testLoggerDB())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(path)
	})
	return db
}

func TestSessionRepository_GetRecent(t *testing.T) {
	db := openTestDB(t, "/tmp/test_sessions_recent.db")
	repo := NewSessionRepository(db.GetDB())

	now := time.Now()
	for i := 0; i < 5; i++ {
		s := &Session{
			StreamID:    uint32(1000 + i),
			SrcCallsign: "W2FBI",
			DstCallsign: "SP5WWP",
			Reflector:   "M17-M17",
			StartTime:   now.Add(time.Duration(i) * time.Minute),
			EndTime:     now.Add(time.Duration(i)*time.Minute + 5*time.Second),
		}
		if err := repo.Create(s); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	sessions, err := repo.GetRecent(3)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].StartTime.Before(sessions[1].StartTime) {
		t.Error("expected sessions ordered by start_time DESC")
	}
}

func TestSessionRepository_GetByCallsignAndReflector(t *testing.T) {
	db := openTestDB(t, "/tmp/test_sessions_filter.db")
	repo := NewSessionRepository(db.GetDB())

	now := time.Now()
	if err := repo.Create(&Session{StreamID: 1, SrcCallsign: "W2FBI", Reflector: "M17-M17", StartTime: now, EndTime: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(&Session{StreamID: 2, SrcCallsign: "SP5WWP", Reflector: "M17-TEST", StartTime: now, EndTime: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byCallsign, err := repo.GetByCallsign("W2FBI", 10)
	if err != nil {
		t.Fatalf("GetByCallsign: %v", err)
	}
	if len(byCallsign) != 1 || byCallsign[0].SrcCallsign != "W2FBI" {
		t.Fatalf("unexpected result: %+v", byCallsign)
	}

	byReflector, err := repo.GetByReflector("M17-TEST", 10)
	if err != nil {
		t.Fatalf("GetByReflector: %v", err)
	}
	if len(byReflector) != 1 || byReflector[0].Reflector != "M17-TEST" {
		t.Fatalf("unexpected result: %+v", byReflector)
	}
}

func TestSessionRepository_DeleteOlderThan(t *testing.T) {
	db := openTestDB(t, "/tmp/test_sessions_delete.db")
	repo := NewSessionRepository(db.GetDB())

	now := time.Now()
	if err := repo.Create(&Session{StreamID: 1, StartTime: now.Add(-48 * time.Hour), EndTime: now.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("Create old: %v", err)
	}
	if err := repo.Create(&Session{StreamID: 2, StartTime: now.Add(-1 * time.Hour), EndTime: now.Add(-1 * time.Hour)}); err != nil {
		t.Fatalf("Create recent: %v", err)
	}

	deleted, err := repo.DeleteOlderThan(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}

	remaining, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining session, got %d", len(remaining))
	}
}

func TestReflectorDirectoryRepository_UpsertAndFind(t *testing.T) {
	db := openTestDB(t, "/tmp/test_directory.db")
	repo := NewReflectorDirectoryRepository(db.GetDB())

	entry := &KnownReflector{Designator: "M17-M17", Host: "m17.example", Port: 17000, Modules: "ABCD"}
	if err := repo.Upsert(entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	found, err := repo.Find("M17-M17")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Host != "m17.example" || found.Port != 17000 {
		t.Fatalf("unexpected entry: %+v", found)
	}

	entry.Port = 17001
	if err := repo.Upsert(entry); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected upsert to update in place, got count %d", count)
	}
}

func TestReflectorDirectoryRepository_UpsertBatch(t *testing.T) {
	db := openTestDB(t, "/tmp/test_directory_batch.db")
	repo := NewReflectorDirectoryRepository(db.GetDB())

	entries := []KnownReflector{
		{Designator: "M17-AAA", Host: "a.example", Port: 17000, Modules: "A"},
		{Designator: "M17-BBB", Host: "b.example", Port: 17000, Modules: "B"},
		{Designator: "M17-CCC", Host: "c.example", Port: 17000, Modules: "C"},
	}
	if err := repo.UpsertBatch(entries, 2); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Designator != "M17-AAA" {
		t.Fatalf("expected entries ordered by designator, got %+v", all[0])
	}
}
