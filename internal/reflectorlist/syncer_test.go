package reflectorlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/store"
)

func testLoggerSyncer() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func openTestStore(t *testing.T, path string) *store.ReflectorDirectoryRepository {
	t.Helper()
	db, err := store.New(store.Config{Path: path}, testLoggerSyncer())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(path)
	})
	return store.NewReflectorDirectoryRepository(db.GetDB())
}

func TestParseCSV(t *testing.T) {
	csvData := `designator,host,port,modules,sponsor,country
M17-M17,relay.m17.example,17000,ABCD,N0CALL,USA
M17-TEST,test.m17.example,17000,AB,W1TEST,USA`

	reflectors, err := parseCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if len(reflectors) != 2 {
		t.Fatalf("expected 2 reflectors, got %d", len(reflectors))
	}
	if reflectors[0].Designator != "M17-M17" || reflectors[0].Port != 17000 {
		t.Fatalf("unexpected first entry: %+v", reflectors[0])
	}
	if reflectors[1].Modules != "AB" {
		t.Fatalf("unexpected second entry: %+v", reflectors[1])
	}
}

func TestParseCSV_SkipsMalformedRows(t *testing.T) {
	csvData := `designator,host,port,modules,sponsor,country
M17-M17,relay.m17.example,not-a-port,ABCD,N0CALL,USA
M17-OK,ok.m17.example,17000,A,W1TEST,USA
too,short`

	reflectors, err := parseCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if len(reflectors) != 1 {
		t.Fatalf("expected 1 valid reflector after skipping malformed rows, got %d", len(reflectors))
	}
	if reflectors[0].Designator != "M17-OK" {
		t.Fatalf("unexpected survivor: %+v", reflectors[0])
	}
}

func TestSyncer_SyncDownloadsAndUpserts(t *testing.T) {
	csvData := `designator,host,port,modules,sponsor,country
M17-M17,relay.m17.example,17000,ABCD,N0CALL,USA`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csvData))
	}))
	defer srv.Close()

	repo := openTestStore(t, "/tmp/test_reflectorlist_sync.db")
	syncer := New(srv.URL, time.Hour, repo, testLoggerSyncer())

	if err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 synced reflector, got %d", count)
	}
}

func TestSyncer_SyncPropagatesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := openTestStore(t, "/tmp/test_reflectorlist_sync_err.db")
	syncer := New(srv.URL, time.Hour, repo, testLoggerSyncer())

	if err := syncer.Sync(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestNew_DefaultsURLWhenEmpty(t *testing.T) {
	repo := openTestStore(t, "/tmp/test_reflectorlist_default_url.db")
	syncer := New("", time.Hour, repo, testLoggerSyncer())
	if syncer.url != DefaultURL {
		t.Fatalf("expected default URL %q, got %q", DefaultURL, syncer.url)
	}
}

func TestSyncer_StartStopsOnCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("designator,host,port,modules,sponsor,country\n"))
	}))
	defer srv.Close()

	repo := openTestStore(t, "/tmp/test_reflectorlist_start.db")
	syncer := New(srv.URL, time.Hour, repo, testLoggerSyncer())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		syncer.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return promptly after context cancellation")
	}
}
