package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"contest-core/internal/model"
	pkgerrors "contest-core/pkg/errors"
)

// ContestRepository 比赛数据访问接口
type ContestRepository interface {
	Create(ctx context.Context, c *model.Contest) error
	GetByID(ctx context.Context, id string) (*model.Contest, error)
	GetByName(ctx context.Context, name string) (*model.Contest, error)
	List(ctx context.Context, filter ContestFilter, offset, limit int) ([]model.Contest, int64, error)
	Update(ctx context.Context, c *model.Contest) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// 比赛状态过滤值
const (
	ContestStatusUpcoming = "upcoming"
	ContestStatusRunning  = "running"
	ContestStatusFinished = "finished"
)

// ContestFilter 比赛列表过滤条件；Status 以 Now 为基准，空值不过滤
type ContestFilter struct {
	Keyword string
	Status  string
	Now     time.Time
}

type contestRepo struct {
	db *gorm.DB
}

// NewContestRepo 创建 ContestRepository 实例
func NewContestRepo(db *gorm.DB) ContestRepository {
	return &contestRepo{db: db}
}

func (r *contestRepo) Create(ctx context.Context, c *model.Contest) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contestRepo) GetByID(ctx context.Context, id string) (*model.Contest, error) {
	var c model.Contest
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contestRepo) GetByName(ctx context.Context, name string) (*model.Contest, error) {
	var c model.Contest
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contestRepo) List(ctx context.Context, filter ContestFilter, offset, limit int) ([]model.Contest, int64, error) {
	var (
		contests []model.Contest
		total    int64
	)
	query := r.db.WithContext(ctx).Model(&model.Contest{})
	if filter.Keyword != "" {
		query = query.Where("name ILIKE ?", containsPattern(filter.Keyword))
	}
	switch filter.Status {
	case ContestStatusUpcoming:
		query = query.Where("start > ?", filter.Now)
	case ContestStatusRunning:
		query = query.Where("start <= ? AND stop >= ?", filter.Now, filter.Now)
	case ContestStatusFinished:
		query = query.Where("stop < ?", filter.Now)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("start DESC").
		Offset(offset).
		Limit(limit).
		Find(&contests).Error
	return contests, total, err
}

// likeEscaper 转义 LIKE 通配符（PostgreSQL 默认转义符为反斜杠）
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 构造按字面量包含匹配的 LIKE 模式
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *contestRepo) Update(ctx context.Context, c *model.Contest) error {
	oldVersion := c.Version
	result := r.db.WithContext(ctx).
		Model(c).
		Where("contest_id = ? AND version = ?", c.ContestID, oldVersion).
		Updates(map[string]interface{}{
			"name":                            c.Name,
			"description":                     c.Description,
			"token_mode":                      c.TokenMode,
			"token_max_number":                c.TokenMaxNumber,
			"token_min_interval_seconds":      c.TokenMinIntervalSeconds,
			"token_gen_initial":               c.TokenGenInitial,
			"token_gen_number":                c.TokenGenNumber,
			"token_gen_interval_seconds":      c.TokenGenIntervalSeconds,
			"token_gen_max":                   c.TokenGenMax,
			"start":                           c.Start,
			"stop":                            c.Stop,
			"analysis_enabled":                c.AnalysisEnabled,
			"analysis_start":                  c.AnalysisStart,
			"analysis_stop":                   c.AnalysisStop,
			"timezone":                        c.Timezone,
			"per_user_time":                   c.PerUserTime,
			"max_submission_number":           c.MaxSubmissionNumber,
			"max_user_test_number":            c.MaxUserTestNumber,
			"min_submission_interval_seconds": c.MinSubmissionIntervalSeconds,
			"min_user_test_interval_seconds":  c.MinUserTestIntervalSeconds,
			"score_precision":                 c.ScorePrecision,
			"allow_user_tests":                c.AllowUserTests,
			"updated_at":                      c.UpdatedAt,
			"updated_by":                      c.UpdatedBy,
			"version":                         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version = oldVersion + 1
	return nil
}

func (r *contestRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Contest{}).
		Where("contest_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
