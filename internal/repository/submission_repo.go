package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"contest-core/internal/model"
)

// SubmissionRepository 提交 / 自测事件数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, event *model.SubmissionEvent) error
	// ListTimestamps 按时间升序返回某参赛者某类事件的全部时间
	ListTimestamps(ctx context.Context, participationID, kind string) ([]time.Time, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, event *model.SubmissionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *submissionRepo) ListTimestamps(ctx context.Context, participationID, kind string) ([]time.Time, error) {
	var timestamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&model.SubmissionEvent{}).
		Where("participation_id = ? AND kind = ?", participationID, kind).
		Order("timestamp ASC").
		Pluck("timestamp", &timestamps).Error
	return timestamps, err
}
