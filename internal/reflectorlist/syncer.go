// Package reflectorlist periodically syncs the known-reflector
// directory from a published CSV list into the store, the M17
// equivalent of a DMR peer registry's RadioID sync.
package reflectorlist

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/store"
)

const (
	// DefaultURL points at the published M17 reflector directory CSV:
	// designator,host,port,modules,sponsor,country
	DefaultURL = "https://m17refd.example.net/reflectors.csv"
	// BatchSize bounds how many rows are upserted per batch; all batches
	// of one sync share a single transaction.
	BatchSize = 500
)

// Syncer downloads and applies the known-reflector directory.
type Syncer struct {
	url      string
	interval time.Duration
	repo     *store.ReflectorDirectoryRepository
	logger   *logger.Logger
	client   *http.Client
}

// New creates a new reflector-directory syncer.
func New(url string, interval time.Duration, repo *store.ReflectorDirectoryRepository, log *logger.Logger) *Syncer {
	if url == "" {
		url = DefaultURL
	}
	return &Syncer{
		url:      url,
		interval: interval,
		repo:     repo,
		logger:   log,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Start runs an immediate sync followed by periodic syncs until ctx
// is cancelled.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("starting reflector directory sync")
	if err := s.Sync(ctx); err != nil {
		s.logger.Error("failed to sync reflector directory on startup", logger.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reflector directory syncer stopped")
			return
		case <-ticker.C:
			s.logger.Info("starting periodic reflector directory sync")
			if err := s.Sync(ctx); err != nil {
				s.logger.Error("failed to sync reflector directory", logger.Error(err))
			}
		}
	}
}

// Sync downloads and applies one copy of the directory.
func (s *Syncer) Sync(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("downloading reflector directory", logger.String("url", s.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download directory: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn("failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reflectors, err := parseCSV(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse directory CSV: %w", err)
	}
	s.logger.Info("parsed reflector directory", logger.Int("reflectors", len(reflectors)))

	if err := s.repo.UpsertBatch(reflectors, BatchSize); err != nil {
		return fmt.Errorf("failed to save reflector directory: %w", err)
	}

	count, _ := s.repo.Count()
	s.logger.Info("reflector directory sync complete",
		logger.Int64("total_reflectors", count),
		logger.String("duration", time.Since(start).String()))

	return nil
}

// parseCSV parses rows of designator,host,port,modules,sponsor,country.
func parseCSV(r io.Reader) ([]store.KnownReflector, error) {
	reader := csv.NewReader(bufio.NewReader(r))

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	reflectors := make([]store.KnownReflector, 0, 1024)
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineNum++
			continue
		}
		lineNum++

		if len(record) < 6 {
			continue
		}

		port, err := strconv.Atoi(record[2])
		if err != nil {
			continue
		}

		reflectors = append(reflectors, store.KnownReflector{
			Designator: record[0],
			Host:       record[1],
			Port:       port,
			Modules:    record[3],
			Sponsor:    record[4],
			Country:    record[5],
		})
	}

	return reflectors, nil
}
