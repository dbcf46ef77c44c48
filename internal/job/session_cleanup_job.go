package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/repo"
	"go.uber.org/zap"
)

// SessionCleanupJob drops chat sessions that have been idle longer than the
// retention window. Chat itself never deletes sessions in-band.
type SessionCleanupJob struct {
	sessionRepo *repo.SessionRepo
	retention   time.Duration
}

func NewSessionCleanupJob(sessionRepo *repo.SessionRepo, retention time.Duration) *SessionCleanupJob {
	return &SessionCleanupJob{sessionRepo: sessionRepo, retention: retention}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.sessionRepo == nil {
		return nil
	}
	retention := j.retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-retention).Unix()
	deleted, err := j.sessionRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired chat sessions removed", zap.Int64("count", deleted))
	}
	return nil
}
