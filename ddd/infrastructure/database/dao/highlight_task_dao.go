package dao

import (
	"context"

	"gorm.io/gorm"

	"highlight-service/ddd/infrastructure/database/po"
	"highlight-service/internal/resource"
)

// terminalTaskStatuses rows in these states never accept further writes,
// a late pipeline update must not resurrect a cancelled or finished task
var terminalTaskStatuses = []string{"completed", "failed", "cancelled"}

type HighlightTaskDAO struct {
	db *gorm.DB
}

func NewHighlightTaskDAO() *HighlightTaskDAO {
	return &HighlightTaskDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func (d *HighlightTaskDAO) Create(ctx context.Context, task *po.HighlightTask) error {
	return d.db.WithContext(ctx).Model(&po.HighlightTask{}).Create(task).Error
}

func (d *HighlightTaskDAO) FindByTaskUUID(ctx context.Context, taskUUID string) (*po.HighlightTask, error) {
	var task po.HighlightTask
	if err := d.db.WithContext(ctx).Where("task_uuid = ?", taskUUID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *HighlightTaskDAO) FindStatusByTaskUUID(ctx context.Context, taskUUID string) (string, error) {
	var status string
	err := d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Select("status").Where("task_uuid = ?", taskUUID).Scan(&status).Error
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", gorm.ErrRecordNotFound
	}
	return status, nil
}

func (d *HighlightTaskDAO) FindByUserUUID(ctx context.Context, userUUID string, limit, offset int) ([]*po.HighlightTask, error) {
	var tasks []*po.HighlightTask
	q := d.db.WithContext(ctx).Where("user_uuid = ?", userUUID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *HighlightTaskDAO) CountByUserUUID(ctx context.Context, userUUID string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Where("user_uuid = ?", userUUID).Count(&count).Error
	return count, err
}

// Update writes the mutable columns of a non-terminal row
func (d *HighlightTaskDAO) Update(ctx context.Context, task *po.HighlightTask) error {
	return d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Where("task_uuid = ? AND status NOT IN ?", task.TaskUUID, terminalTaskStatuses).
		Updates(task).Error
}

func (d *HighlightTaskDAO) UpdateProgress(ctx context.Context, taskUUID string, progress int, stageMessage string) error {
	update := map[string]interface{}{"progress": progress}
	if stageMessage != "" {
		update["stage_message"] = stageMessage
	}
	return d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Where("task_uuid = ? AND status NOT IN ?", taskUUID, terminalTaskStatuses).
		Updates(update).Error
}

// CompareAndSwapStatus flips status only when the stored value still matches
// from. The affected-row count is the claim arbiter between workers.
func (d *HighlightTaskDAO) CompareAndSwapStatus(ctx context.Context, taskUUID, from, to string) (bool, error) {
	res := d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Where("task_uuid = ? AND status = ?", taskUUID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (d *HighlightTaskDAO) QueryByStatus(ctx context.Context, status string, limit int) ([]*po.HighlightTask, error) {
	var tasks []*po.HighlightTask
	q := d.db.WithContext(ctx).Where("status = ?", status).Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *HighlightTaskDAO) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountGroupedByStatus returns per-status row counts in one query
func (d *HighlightTaskDAO) CountGroupedByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := d.db.WithContext(ctx).Model(&po.HighlightTask{}).
		Select("status, count(*) as count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
