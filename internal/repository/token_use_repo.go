package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"contest-core/internal/model"
)

// TokenUseRepository 令牌使用记录数据访问接口（只追加，不提供修改与删除）
type TokenUseRepository interface {
	Create(ctx context.Context, use *model.TokenUse) error
	// ListTimestamps 按时间升序返回某参赛者的全部令牌使用时间
	ListTimestamps(ctx context.Context, participationID string) ([]time.Time, error)
	// CountByParticipations 批量统计令牌使用次数与最近使用时间（导出用）
	CountByParticipations(ctx context.Context, participationIDs []string) (map[string]TokenUsageSummary, error)
}

// TokenUsageSummary 单个参赛者的令牌使用汇总
type TokenUsageSummary struct {
	ParticipationID string
	Count           int
	LastUsedAt      time.Time
}

type tokenUseRepo struct {
	db *gorm.DB
}

// NewTokenUseRepo 创建 TokenUseRepository 实例
func NewTokenUseRepo(db *gorm.DB) TokenUseRepository {
	return &tokenUseRepo{db: db}
}

func (r *tokenUseRepo) Create(ctx context.Context, use *model.TokenUse) error {
	return r.db.WithContext(ctx).Create(use).Error
}

func (r *tokenUseRepo) ListTimestamps(ctx context.Context, participationID string) ([]time.Time, error) {
	var timestamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&model.TokenUse{}).
		Where("participation_id = ?", participationID).
		Order("timestamp ASC").
		Pluck("timestamp", &timestamps).Error
	return timestamps, err
}

func (r *tokenUseRepo) CountByParticipations(ctx context.Context, participationIDs []string) (map[string]TokenUsageSummary, error) {
	result := make(map[string]TokenUsageSummary, len(participationIDs))
	if len(participationIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ParticipationID string
		Count           int
		LastUsedAt      time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&model.TokenUse{}).
		Select("participation_id, COUNT(*) AS count, MAX(timestamp) AS last_used_at").
		Where("participation_id IN ?", participationIDs).
		Group("participation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ParticipationID] = TokenUsageSummary{
			ParticipationID: row.ParticipationID,
			Count:           row.Count,
			LastUsedAt:      row.LastUsedAt,
		}
	}
	return result, nil
}
