package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"contest-core/internal/dto"
	"contest-core/internal/model"
	"contest-core/internal/repository"
)

// ── 参赛模块业务错误 ──

var (
	ErrParticipationNotFound = errors.New("参赛记录不存在")
	ErrAlreadyJoined         = errors.New("该用户已参加本场比赛")
)

// ParticipationService 参赛业务接口
type ParticipationService interface {
	Join(ctx context.Context, contestID string, req *dto.JoinContestRequest, callerID string) (*dto.ParticipationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ParticipationResponse, error)
}

type participationService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

// NewParticipationService 创建 ParticipationService 实例
func NewParticipationService(repo *repository.Repository, clock Clock, logger *zap.Logger) ParticipationService {
	return &participationService{repo: repo, now: clock, logger: logger}
}

// ────────────────────── Join ──────────────────────

func (s *participationService) Join(ctx context.Context, contestID string, req *dto.JoinContestRequest, callerID string) (*dto.ParticipationResponse, error) {
	if _, err := loadContest(ctx, s.repo, contestID, s.logger); err != nil {
		return nil, err
	}

	_, err := s.repo.Participation.GetByContestAndUser(ctx, contestID, req.UserID)
	if err == nil {
		return nil, ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询参赛记录失败", zap.String("contest_id", contestID), zap.Error(err))
		return nil, err
	}

	p := &model.Participation{
		ContestID:    contestID,
		UserID:       req.UserID,
		Hidden:       req.Hidden,
		Unrestricted: req.Unrestricted,
	}
	p.MarkCreated(callerID, s.now())

	if err := s.repo.Participation.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyJoined
		}
		s.logger.Error("创建参赛记录失败", zap.String("contest_id", contestID), zap.Error(err))
		return nil, err
	}

	return toParticipationResponse(p), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *participationService) GetByID(ctx context.Context, id string) (*dto.ParticipationResponse, error) {
	p, err := loadParticipation(ctx, s.repo, id, s.logger)
	if err != nil {
		return nil, err
	}
	return toParticipationResponse(p), nil
}

// ── 内部辅助 ──

func loadParticipation(ctx context.Context, repo *repository.Repository, id string, logger *zap.Logger) (*model.Participation, error) {
	p, err := repo.Participation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		logger.Error("查询参赛记录失败", zap.String("participation_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// loadParticipationWithContest 查询参赛记录及其所属比赛（比赛已删除时视为不存在）
func loadParticipationWithContest(ctx context.Context, repo *repository.Repository, id string, logger *zap.Logger) (*model.Participation, *model.Contest, error) {
	p, err := loadParticipation(ctx, repo, id, logger)
	if err != nil {
		return nil, nil, err
	}
	c, err := loadContest(ctx, repo, p.ContestID, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

func toParticipationResponse(p *model.Participation) *dto.ParticipationResponse {
	return &dto.ParticipationResponse{
		ID:           p.ParticipationID,
		ContestID:    p.ContestID,
		UserID:       p.UserID,
		Hidden:       p.Hidden,
		Unrestricted: p.Unrestricted,
		CreatedAt:    formatTime(p.CreatedAt),
	}
}
