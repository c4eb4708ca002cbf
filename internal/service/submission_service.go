package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"contest-core/internal/contest"
	"contest-core/internal/dto"
	"contest-core/internal/model"
	"contest-core/internal/repository"
)

// ── 提交模块业务错误 ──

var (
	ErrSubmissionsClosed      = errors.New("当前阶段不接受提交")
	ErrSubmissionLimitReached = errors.New("提交次数已达上限")
	ErrSubmissionTooSoon      = errors.New("距上次提交的间隔过短")
	ErrUserTestsDisabled      = errors.New("本场比赛未开放自测")
	ErrSubmissionKindInvalid  = errors.New("未知的提交类型")
)

// SubmissionService 提交 / 自测频率控制接口
// 只负责准入判定与时间记录，评测由外部系统完成。
type SubmissionService interface {
	// Check 只读判定当前能否提交，不写入记录
	Check(ctx context.Context, participationID, kind string) error
	// Record 判定通过后记录一次提交（事务内加行锁）
	Record(ctx context.Context, participationID string, req *dto.SubmitRequest) (*dto.SubmitResponse, error)
}

type submissionService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, clock Clock, logger *zap.Logger) SubmissionService {
	return &submissionService{repo: repo, now: clock, logger: logger}
}

// ────────────────────── Check ──────────────────────

func (s *submissionService) Check(ctx context.Context, participationID, kind string) error {
	p, c, err := loadParticipationWithContest(ctx, s.repo, participationID, s.logger)
	if err != nil {
		return err
	}
	history, err := s.repo.Submission.ListTimestamps(ctx, p.ParticipationID, kind)
	if err != nil {
		s.logger.Error("查询提交记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return err
	}
	_, err = admitSubmission(p, c, kind, history, s.now())
	return err
}

// ────────────────────── Record ──────────────────────

func (s *submissionService) Record(ctx context.Context, participationID string, req *dto.SubmitRequest) (*dto.SubmitResponse, error) {
	p, c, err := loadParticipationWithContest(ctx, s.repo, participationID, s.logger)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Participation.LockForUpdate(ctx, p.ParticipationID); err != nil {
		rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		s.logger.Error("锁定参赛记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	history, err := txRepo.Submission.ListTimestamps(ctx, p.ParticipationID, req.Kind)
	if err != nil {
		rollback()
		s.logger.Error("查询提交记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	phase, err := admitSubmission(p, c, req.Kind, history, now)
	if err != nil {
		rollback()
		return nil, err
	}

	event := &model.SubmissionEvent{
		ParticipationID: p.ParticipationID,
		Kind:            req.Kind,
		Task:            req.Task,
		Official:        phase.IsOfficial(),
		Timestamp:       now,
	}
	if err := txRepo.Submission.Create(ctx, event); err != nil {
		rollback()
		s.logger.Error("写入提交记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return &dto.SubmitResponse{
		ID:        event.SubmissionEventID,
		Kind:      event.Kind,
		Task:      event.Task,
		Official:  event.Official,
		Timestamp: formatTime(event.Timestamp),
	}, nil
}

// ── 内部辅助 ──

// admitSubmission 依次判定：提交类型 → 比赛阶段 → 频率限制（unrestricted 参赛者跳过频率限制）
func admitSubmission(p *model.Participation, c *model.Contest, kind string, history contest.History, now time.Time) (contest.Phase, error) {
	var (
		limit contest.IntervalLimit
		err   error
	)
	switch kind {
	case model.SubmissionKindSubmission:
		limit, err = c.SubmissionLimit()
	case model.SubmissionKindUserTest:
		if !c.AllowUserTests {
			return 0, ErrUserTestsDisabled
		}
		limit, err = c.UserTestLimit()
	default:
		return 0, ErrSubmissionKindInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}

	phase := scheduleOf(c).Phase(now)
	if !phase.AllowsSubmission() {
		return phase, ErrSubmissionsClosed
	}
	if p.Unrestricted {
		return phase, nil
	}

	switch limit.Check(history, now).Reason {
	case contest.LimitReasonMaxNumberReached:
		return phase, ErrSubmissionLimitReached
	case contest.LimitReasonTooSoon:
		return phase, ErrSubmissionTooSoon
	}
	return phase, nil
}
