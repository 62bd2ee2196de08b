package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// tempPrefixes identifies working files the pipeline and exporter leave
// behind when a process dies mid-job: extracted audio, per-range clips and
// concat list files.
var tempPrefixes = []string{"ezclip_audio_", "clip-", "concat_"}

// Service removes stale working files from the temp directory
type Service struct {
	tempDir         string
	maxAge          time.Duration
	cleanupInterval time.Duration
	cancel          context.CancelFunc
}

// NewService creates a new cleanup service
func NewService(tempDir string, maxAge, cleanupInterval time.Duration) *Service {
	return &Service{
		tempDir:         tempDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
	}
}

// Start begins the cleanup service
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Run initial cleanup
	s.Sweep()

	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				log.Info().Msg("Cleanup service stopped")
				return
			}
		}
	}()

	log.Info().
		Dur("interval", s.cleanupInterval).
		Dur("max_age", s.maxAge).
		Str("dir", s.tempDir).
		Msg("Cleanup service started")
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Sweep removes working files older than the configured age. Returns the
// number of files removed.
func (s *Service) Sweep() int {
	if _, err := os.Stat(s.tempDir); os.IsNotExist(err) {
		return 0
	}

	removed := 0
	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files with errors
		}
		if info.IsDir() {
			return nil
		}

		if !isWorkingFile(info.Name()) {
			return nil
		}
		if time.Since(info.ModTime()) <= s.maxAge {
			return nil
		}

		log.Debug().Str("path", path).Msg("Removing stale temp file")
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove temp file")
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Cleanup walk error")
	}
	return removed
}

func isWorkingFile(name string) bool {
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
