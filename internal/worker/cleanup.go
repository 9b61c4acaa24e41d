package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"rentline/internal/domain"
	"rentline/internal/models"

	"github.com/rs/zerolog"
)

// Cleaner runs the scheduled housekeeping jobs: it trims the job journal
// across all queues and deletes aged export artifacts.
type Cleaner struct {
	journal       domain.JobJournal
	exportDirs    []string
	retentionDays int
	keepCompleted int
	keepFailed    int
	logger        *zerolog.Logger
}

func NewCleaner(journal domain.JobJournal, exportDirs []string, retentionDays, keepCompleted, keepFailed int, logger *zerolog.Logger) *Cleaner {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if keepCompleted <= 0 {
		keepCompleted = models.KeepCompletedJobs
	}
	if keepFailed <= 0 {
		keepFailed = models.KeepFailedJobs
	}
	return &Cleaner{
		journal:       journal,
		exportDirs:    exportDirs,
		retentionDays: retentionDays,
		keepCompleted: keepCompleted,
		keepFailed:    keepFailed,
		logger:        logger,
	}
}

// PurgeJobHistory trims every queue's journal down to the retention caps.
func (c *Cleaner) PurgeJobHistory(ctx context.Context) error {
	for _, queue := range models.QueueNames {
		if err := c.journal.TrimHistory(ctx, queue, c.keepCompleted, c.keepFailed); err != nil {
			return err
		}
	}
	c.logger.Info().Msg("job history trimmed")
	return nil
}

// PurgeExports removes export files older than the retention window.
func (c *Cleaner) PurgeExports(ctx context.Context, olderThanDays int) error {
	if olderThanDays <= 0 {
		olderThanDays = c.retentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	removed := 0
	for _, dir := range c.exportDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				c.logger.Warn().Err(err).Str("path", path).Msg("remove export")
				continue
			}
			removed++
		}
	}

	c.logger.Info().Int("removed", removed).Int("older_than_days", olderThanDays).Msg("exports purged")
	return nil
}
