package queue

import (
	"context"
	"time"

	"github.com/adegaexpress/adega/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

func (m *Manager) persistFailed(env envelope, lastErr error, attempts int) {
	now := time.Now()

	if m.db != nil {
		record := FailedJobRecord{
			JobType:  env.Type,
			Payload:  string(env.Payload),
			Attempts: attempts,
			FailedAt: now,
		}
		if lastErr != nil {
			record.Error = lastErr.Error()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
			logger.Error("queue: persist failed job", "type", env.Type, "error", err)
		}
		cancel()
	}

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Payload: env.Payload, Err: lastErr, FailedAt: now, Attempts: attempts,
	})
	m.mu.Unlock()
}
