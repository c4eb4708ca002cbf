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
	pkgerrors "contest-core/pkg/errors"
)

// ── 令牌模块业务错误 ──

var (
	ErrTokenDisabled        = errors.New("本场比赛未启用令牌")
	ErrNoTokensAvailable    = errors.New("当前没有可用令牌")
	ErrTokenTooSoon         = errors.New("距上次使用令牌的间隔过短")
	ErrContestNotActive     = errors.New("比赛不在进行中")
	ErrSpendInProgress      = errors.New("该参赛者有令牌使用请求正在处理")
	ErrTokenAlreadyRedeemed = errors.New("该提交已使用过令牌")
)

// reasonContestNotActive 状态查询中阶段不允许使用令牌时的原因
const reasonContestNotActive = "contest_not_active"

// TokenService 令牌业务接口
type TokenService interface {
	// GetStatus 查询参赛者当前的令牌状态（只读，不加锁）
	GetStatus(ctx context.Context, participationID string) (*dto.TokenStatusResponse, error)
	// Redeem 为某次提交使用一个令牌；判定与追加在同一事务内对参赛记录加行锁完成
	Redeem(ctx context.Context, participationID, submissionID string) (*dto.RedeemTokenResponse, error)
}

type tokenService struct {
	repo    *repository.Repository
	locker  Locker
	lockTTL time.Duration
	now     Clock
	logger  *zap.Logger
}

// NewTokenService 创建 TokenService 实例；locker 可为 nil
func NewTokenService(repo *repository.Repository, locker Locker, lockTTL time.Duration, clock Clock, logger *zap.Logger) TokenService {
	return &tokenService{repo: repo, locker: locker, lockTTL: lockTTL, now: clock, logger: logger}
}

// ────────────────────── GetStatus ──────────────────────

func (s *tokenService) GetStatus(ctx context.Context, participationID string) (*dto.TokenStatusResponse, error) {
	p, c, err := loadParticipationWithContest(ctx, s.repo, participationID, s.logger)
	if err != nil {
		return nil, err
	}
	policy, err := c.TokenPolicy()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}

	history, err := s.repo.TokenUse.ListTimestamps(ctx, p.ParticipationID)
	if err != nil {
		s.logger.Error("查询令牌使用记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	return buildTokenStatus(p.ParticipationID, c, policy, history, s.now()), nil
}

// ────────────────────── Redeem ──────────────────────
//
// 流程：
//  1. 比赛必须处于进行中
//  2. 获取参赛者级 Redis 锁（可选，Redis 不可用时仅依赖行锁）
//  3. 事务内 SELECT ... FOR UPDATE 锁定参赛记录
//  4. 读取历史 → CanSpendNow → 允许时追加 TokenUse

func (s *tokenService) Redeem(ctx context.Context, participationID, submissionID string) (*dto.RedeemTokenResponse, error) {
	p, c, err := loadParticipationWithContest(ctx, s.repo, participationID, s.logger)
	if err != nil {
		return nil, err
	}
	policy, err := c.TokenPolicy()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}
	sched := scheduleOf(c)
	if sched.Phase(s.now()) != contest.PhaseContestActive {
		return nil, ErrContestNotActive
	}

	if s.locker != nil {
		lock, err := s.locker.AcquireLock(ctx, "token:"+p.ParticipationID, s.lockTTL)
		switch {
		case errors.Is(err, pkgerrors.ErrLockNotAcquired):
			return nil, ErrSpendInProgress
		case err != nil:
			s.logger.Warn("Redis 锁不可用，仅使用数据库行锁", zap.Error(err))
		default:
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("释放令牌锁失败", zap.Error(err))
				}
			}()
		}
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

	history, err := txRepo.TokenUse.ListTimestamps(ctx, p.ParticipationID)
	if err != nil {
		rollback()
		s.logger.Error("查询令牌使用记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	// 取得锁之后重新取时间：等待期间比赛可能已经结束
	now := s.now()
	if sched.Phase(now) != contest.PhaseContestActive {
		rollback()
		return nil, ErrContestNotActive
	}
	verdict := contest.CanSpendNow(policy, history, c.Start, now)
	if !verdict.Allowed {
		rollback()
		return nil, spendReasonError(verdict.Reason)
	}

	use := &model.TokenUse{
		ParticipationID: p.ParticipationID,
		SubmissionID:    submissionID,
		Timestamp:       now,
	}
	if err := txRepo.TokenUse.Create(ctx, use); err != nil {
		rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTokenAlreadyRedeemed
		}
		s.logger.Error("写入令牌使用记录失败", zap.String("participation_id", participationID), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("令牌已使用",
		zap.String("participation_id", p.ParticipationID),
		zap.String("submission_id", submissionID),
		zap.Int("spent", len(history)+1),
	)

	history = append(history, now)
	return &dto.RedeemTokenResponse{
		TokenUseID:   use.TokenUseID,
		SubmissionID: submissionID,
		Timestamp:    formatTime(now),
		Status:       *buildTokenStatus(p.ParticipationID, c, policy, history, now),
	}, nil
}

// ── 内部辅助 ──

func spendReasonError(reason contest.SpendReason) error {
	switch reason {
	case contest.SpendReasonDisabled:
		return ErrTokenDisabled
	case contest.SpendReasonNoTokensAvailable:
		return ErrNoTokensAvailable
	case contest.SpendReasonTooSoonAfterLastSpend:
		return ErrTokenTooSoon
	}
	return fmt.Errorf("未知的令牌拒绝原因: %s", reason)
}

func buildTokenStatus(participationID string, c *model.Contest, policy contest.TokenPolicy, history contest.History, now time.Time) *dto.TokenStatusResponse {
	phase := scheduleOf(c).Phase(now)
	avail := contest.AvailableTokens(policy, history, c.Start, now)
	verdict := contest.CanSpendNow(policy, history, c.Start, now)

	status := &dto.TokenStatusResponse{
		ParticipationID: participationID,
		At:              formatTime(now),
		Phase:           int(phase),
		PhaseName:       phase.String(),
		Mode:            string(policy.Mode),
		Infinite:        avail.Infinite,
		Spent:           len(history),
		CanSpend:        verdict.Allowed,
		Reason:          string(verdict.Reason),
	}
	if !avail.Infinite {
		count := avail.Count
		status.Available = &count
	}
	if phase != contest.PhaseContestActive {
		status.CanSpend = false
		status.Reason = reasonContestNotActive
	}

	status.NextGenerationAt = formatTimePtr(contest.NextGeneration(policy, c.Start, now))
	status.SpendAllowedAt = formatTimePtr(contest.SpendAllowedAt(policy, history))
	return status
}
