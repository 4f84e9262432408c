package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"highlight-service/ddd/infrastructure/database/po"
	"highlight-service/internal/resource"
)

// pendingJobStatuses jobs in these states still owe a dispatch outcome
var pendingJobStatuses = []string{"queued", "in_flight", "failed_retryable"}

type PublishJobDAO struct {
	db *gorm.DB
}

func NewPublishJobDAO() *PublishJobDAO {
	return &PublishJobDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func (d *PublishJobDAO) Create(ctx context.Context, job *po.PublishJob) error {
	return d.db.WithContext(ctx).Model(&po.PublishJob{}).Create(job).Error
}

func (d *PublishJobDAO) FindByJobUUID(ctx context.Context, jobUUID string) (*po.PublishJob, error) {
	var job po.PublishJob
	if err := d.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (d *PublishJobDAO) FindByTaskUUID(ctx context.Context, taskUUID string) ([]*po.PublishJob, error) {
	var jobs []*po.PublishJob
	err := d.db.WithContext(ctx).Where("task_uuid = ?", taskUUID).
		Order("scheduled_time ASC").Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update writes every mutable column. A field map rather than the struct so
// cleared values persist, a succeeded job must drop its stale last_error.
func (d *PublishJobDAO) Update(ctx context.Context, job *po.PublishJob) error {
	update := map[string]interface{}{
		"scheduled_time": job.ScheduledTime,
		"attempts":       job.Attempts,
		"max_attempts":   job.MaxAttempts,
		"status":         job.Status,
		"last_error":     job.LastError,
		"published_url":  job.PublishedURL,
		"published_at":   job.PublishedAt,
		"updated_at":     job.UpdatedAt,
	}
	return d.db.WithContext(ctx).Model(&po.PublishJob{}).
		Where("job_uuid = ?", job.JobUUID).Updates(update).Error
}

// QueryDue lists queued jobs of a platform whose schedule has arrived,
// oldest schedule first so dispatch order follows scheduled time
func (d *PublishJobDAO) QueryDue(ctx context.Context, platform string, now time.Time, limit int) ([]*po.PublishJob, error) {
	var jobs []*po.PublishJob
	q := d.db.WithContext(ctx).
		Where("platform = ? AND status = ? AND scheduled_time <= ?", platform, "queued", now).
		Order("scheduled_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindByStatus lists jobs in a status, least recently touched rows first so
// recovery sees the longest-stranded jobs before the batch limit cuts off
func (d *PublishJobDAO) FindByStatus(ctx context.Context, status string, limit int) ([]*po.PublishJob, error) {
	var jobs []*po.PublishJob
	q := d.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (d *PublishJobDAO) CompareAndSwapStatus(ctx context.Context, jobUUID, from, to string) (bool, error) {
	res := d.db.WithContext(ctx).Model(&po.PublishJob{}).
		Where("job_uuid = ? AND status = ?", jobUUID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (d *PublishJobDAO) CountPendingByTask(ctx context.Context, taskUUID string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&po.PublishJob{}).
		Where("task_uuid = ? AND status IN ?", taskUUID, pendingJobStatuses).
		Count(&count).Error
	return count, err
}

func (d *PublishJobDAO) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&po.PublishJob{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}
