package jobs

import (
	"context"
	"log"
	"time"

	"contentdeck/internal/services"
)

// AcceptedIdeaCleanupJob purges accepted generated ideas older than the
// retention window. Pending ideas are never touched; the job is opt-in
// (IDEA_RETENTION_DAYS) because accepted ideas keep the audit trail from
// idea to topic.
type AcceptedIdeaCleanupJob struct {
	ideaService *services.IdeaService
	interval    time.Duration
	retention   time.Duration
}

// NewAcceptedIdeaCleanupJob creates a new accepted-idea cleanup job.
// interval: how often to run (e.g., 12 hours)
// retention: accepted ideas older than this are purged
func NewAcceptedIdeaCleanupJob(ideaService *services.IdeaService, interval, retention time.Duration) *AcceptedIdeaCleanupJob {
	return &AcceptedIdeaCleanupJob{
		ideaService: ideaService,
		interval:    interval,
		retention:   retention,
	}
}

// Run purges accepted ideas past the retention window
func (j *AcceptedIdeaCleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.retention)

	purged, err := j.ideaService.DeleteAcceptedBefore(cutoff)
	if err != nil {
		return err
	}

	if purged > 0 {
		log.Printf("🧹 [IDEA-CLEANUP] Purged %d accepted ideas older than %s", purged, cutoff.Format(time.RFC3339))
	}
	return nil
}

// GetNextRunTime returns when this job should next run
func (j *AcceptedIdeaCleanupJob) GetNextRunTime() time.Time {
	return time.Now().Add(j.interval)
}
