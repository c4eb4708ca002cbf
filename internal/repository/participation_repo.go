package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contest-core/internal/model"
)

// ParticipationRepository 参赛记录数据访问接口
type ParticipationRepository interface {
	Create(ctx context.Context, p *model.Participation) error
	GetByID(ctx context.Context, id string) (*model.Participation, error)
	GetByContestAndUser(ctx context.Context, contestID, userID string) (*model.Participation, error)
	ListByContest(ctx context.Context, contestID string) ([]model.Participation, error)
	// LockForUpdate 对参赛记录加行锁（SELECT ... FOR UPDATE）。
	// 必须在事务连接上调用（通过 Repository.WithTx 注入），用于串行化同一参赛者的「判定 + 追加」。
	LockForUpdate(ctx context.Context, id string) (*model.Participation, error)
}

type participationRepo struct {
	db *gorm.DB
}

// NewParticipationRepo 创建 ParticipationRepository 实例
func NewParticipationRepo(db *gorm.DB) ParticipationRepository {
	return &participationRepo{db: db}
}

func (r *participationRepo) Create(ctx context.Context, p *model.Participation) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *participationRepo) GetByID(ctx context.Context, id string) (*model.Participation, error) {
	var p model.Participation
	err := r.db.WithContext(ctx).
		Where("participation_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participationRepo) GetByContestAndUser(ctx context.Context, contestID, userID string) (*model.Participation, error) {
	var p model.Participation
	err := r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participationRepo) ListByContest(ctx context.Context, contestID string) ([]model.Participation, error) {
	var list []model.Participation
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *participationRepo) LockForUpdate(ctx context.Context, id string) (*model.Participation, error) {
	var p model.Participation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("participation_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
