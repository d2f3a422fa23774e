package pipeline

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Sweep removes job directories left behind by a crashed worker. Called once
// at startup, before the queue is consumed; any job whose directory is still
// present was never completed and its task was either delivered or lost, so
// the files are garbage either way.
func Sweep(dataDir string) int {
	jobsDir := filepath.Join(dataDir, "jobs")
	entries, err := os.ReadDir(jobsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", jobsDir).Msg("stale job sweep failed")
		}
		return 0
	}
	removed := 0
	for _, e := range entries {
		path := filepath.Join(jobsDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not remove stale job dir")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("swept stale job dirs")
	}
	return removed
}
