package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"contest-core/config"
	"contest-core/internal/contest"
	"contest-core/internal/dto"
	"contest-core/internal/model"
	"contest-core/internal/repository"
)

// ── 比赛模块业务错误 ──

var (
	ErrContestNotFound      = errors.New("比赛不存在")
	ErrContestConfigInvalid = errors.New("比赛配置不合法")
	ErrContestNameTaken     = errors.New("比赛名称已被使用")
)

// ContestService 比赛业务接口
type ContestService interface {
	Create(ctx context.Context, req *dto.CreateContestRequest, callerID string) (*dto.ContestResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ContestResponse, error)
	List(ctx context.Context, req *dto.ContestListRequest) ([]dto.ContestResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateContestRequest, callerID string) (*dto.ContestResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// GetPhase 查询比赛在 at 时刻所处阶段；at 为 nil 时取当前时间
	GetPhase(ctx context.Context, id string, at *time.Time) (*dto.PhaseResponse, error)
}

type contestService struct {
	repo     *repository.Repository
	defaults config.ContestConfig
	now      Clock
	logger   *zap.Logger
}

// NewContestService 创建 ContestService 实例
func NewContestService(repo *repository.Repository, defaults config.ContestConfig, clock Clock, logger *zap.Logger) ContestService {
	return &contestService{repo: repo, defaults: defaults, now: clock, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *contestService) Create(ctx context.Context, req *dto.CreateContestRequest, callerID string) (*dto.ContestResponse, error) {
	c := &model.Contest{}
	s.applyRequest(c, &req.ContestRequest)
	if err := validateContest(c); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, c.Name, ""); err != nil {
		return nil, err
	}

	c.MarkCreated(callerID, s.now())

	if err := s.repo.Contest.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrContestNameTaken
		}
		s.logger.Error("创建比赛失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("比赛已创建",
		zap.String("contest_id", c.ContestID),
		zap.String("name", c.Name),
		zap.String("token_mode", c.TokenMode),
	)
	return s.toContestResponse(c), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *contestService) GetByID(ctx context.Context, id string) (*dto.ContestResponse, error) {
	c, err := loadContest(ctx, s.repo, id, s.logger)
	if err != nil {
		return nil, err
	}
	return s.toContestResponse(c), nil
}

// ────────────────────── List ──────────────────────

func (s *contestService) List(ctx context.Context, req *dto.ContestListRequest) ([]dto.ContestResponse, int64, error) {
	filter := repository.ContestFilter{Keyword: req.Keyword, Status: req.Status, Now: s.now()}
	contests, total, err := s.repo.Contest.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出比赛失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ContestResponse, 0, len(contests))
	for i := range contests {
		result = append(result, *s.toContestResponse(&contests[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *contestService) Update(ctx context.Context, id string, req *dto.UpdateContestRequest, callerID string) (*dto.ContestResponse, error) {
	c, err := loadContest(ctx, s.repo, id, s.logger)
	if err != nil {
		return nil, err
	}

	s.applyRequest(c, &req.ContestRequest)
	if err := validateContest(c); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, c.Name, c.ContestID); err != nil {
		return nil, err
	}

	// 以客户端读到的版本号为准，期间被他人修改则返回乐观锁冲突
	c.Version = req.Version
	c.MarkUpdated(callerID, s.now())

	if err := s.repo.Contest.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrContestNameTaken
		}
		s.logger.Warn("更新比赛失败", zap.String("contest_id", id), zap.Error(err))
		return nil, err
	}

	return s.toContestResponse(c), nil
}

// ────────────────────── Delete ──────────────────────

func (s *contestService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := loadContest(ctx, s.repo, id, s.logger); err != nil {
		return err
	}
	if err := s.repo.Contest.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除比赛失败", zap.String("contest_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetPhase ──────────────────────

func (s *contestService) GetPhase(ctx context.Context, id string, at *time.Time) (*dto.PhaseResponse, error) {
	c, err := loadContest(ctx, s.repo, id, s.logger)
	if err != nil {
		return nil, err
	}

	t := s.now()
	if at != nil {
		t = *at
	}

	sched := scheduleOf(c)
	phase := sched.Phase(t)
	return &dto.PhaseResponse{
		ContestID:       c.ContestID,
		At:              formatTime(t),
		Phase:           int(phase),
		PhaseName:       phase.String(),
		Start:           formatTime(sched.Start),
		Stop:            formatTime(sched.Stop),
		AnalysisEnabled: sched.AnalysisEnabled,
		AnalysisStart:   formatTime(sched.AnalysisStart),
		AnalysisStop:    formatTime(sched.AnalysisStop),
	}, nil
}

// ── 内部辅助 ──

// applyRequest 将请求整体写入模型；未给出的令牌参数取配置默认值，未给出的分析窗口取比赛结束时间
func (s *contestService) applyRequest(c *model.Contest, req *dto.ContestRequest) {
	c.Name = req.Name
	c.Description = req.Description
	c.Start = req.Start.UTC()
	c.Stop = req.Stop.UTC()
	c.AnalysisEnabled = req.AnalysisEnabled
	c.AnalysisStart = c.Stop
	if req.AnalysisStart != nil {
		c.AnalysisStart = req.AnalysisStart.UTC()
	}
	c.AnalysisStop = c.Stop
	if req.AnalysisStop != nil {
		c.AnalysisStop = req.AnalysisStop.UTC()
	}
	c.Timezone = req.Timezone
	c.PerUserTime = req.PerUserTime

	c.TokenMode = s.defaults.DefaultTokenMode
	if req.TokenMode != nil {
		c.TokenMode = *req.TokenMode
	}
	c.TokenMaxNumber = req.TokenMaxNumber
	c.TokenMinIntervalSeconds = 0
	if req.TokenMinIntervalSeconds != nil {
		c.TokenMinIntervalSeconds = *req.TokenMinIntervalSeconds
	}
	c.TokenGenInitial = s.defaults.DefaultTokenGenInitial
	if req.TokenGenInitial != nil {
		c.TokenGenInitial = *req.TokenGenInitial
	}
	c.TokenGenNumber = s.defaults.DefaultTokenGenNumber
	if req.TokenGenNumber != nil {
		c.TokenGenNumber = *req.TokenGenNumber
	}
	c.TokenGenIntervalSeconds = int64(s.defaults.DefaultTokenGenInterval / time.Second)
	if req.TokenGenIntervalSeconds != nil {
		c.TokenGenIntervalSeconds = *req.TokenGenIntervalSeconds
	}
	c.TokenGenMax = req.TokenGenMax

	c.MaxSubmissionNumber = req.MaxSubmissionNumber
	c.MaxUserTestNumber = req.MaxUserTestNumber
	c.MinSubmissionIntervalSeconds = req.MinSubmissionIntervalSeconds
	c.MinUserTestIntervalSeconds = req.MinUserTestIntervalSeconds

	c.ScorePrecision = 0
	if req.ScorePrecision != nil {
		c.ScorePrecision = *req.ScorePrecision
	}
	c.AllowUserTests = true
	if req.AllowUserTests != nil {
		c.AllowUserTests = *req.AllowUserTests
	}
}

// validateContest 构造全部规则快照，任一不合法即拒绝（错误中带字段详情）
func validateContest(c *model.Contest) error {
	if _, err := c.Schedule(); err != nil {
		return fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}
	if _, err := c.TokenPolicy(); err != nil {
		return fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}
	if _, err := c.SubmissionLimit(); err != nil {
		return fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}
	if _, err := c.UserTestLimit(); err != nil {
		return fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}
	if c.Timezone != nil {
		if _, err := time.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("%w: timezone: 未知时区 %s", ErrContestConfigInvalid, *c.Timezone)
		}
	}
	return nil
}

func (s *contestService) checkNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.Contest.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("按名称查询比赛失败", zap.String("name", name), zap.Error(err))
		return err
	}
	if existing.ContestID != selfID {
		return ErrContestNameTaken
	}
	return nil
}

// loadContest 按 ID 查询比赛，记录不存在时返回 ErrContestNotFound
func loadContest(ctx context.Context, repo *repository.Repository, id string, logger *zap.Logger) (*model.Contest, error) {
	c, err := repo.Contest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContestNotFound
		}
		logger.Error("查询比赛失败", zap.String("contest_id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// scheduleOf 已持久化的比赛受数据库 CHECK 约束保护，直接构造时间表
func scheduleOf(c *model.Contest) contest.Schedule {
	return contest.Schedule{
		Start:           c.Start,
		Stop:            c.Stop,
		AnalysisEnabled: c.AnalysisEnabled,
		AnalysisStart:   c.AnalysisStart,
		AnalysisStop:    c.AnalysisStop,
	}
}

func (s *contestService) toContestResponse(c *model.Contest) *dto.ContestResponse {
	phase := scheduleOf(c).Phase(s.now())
	return &dto.ContestResponse{
		ID:              c.ContestID,
		Name:            c.Name,
		Description:     c.Description,
		Start:           formatTime(c.Start),
		Stop:            formatTime(c.Stop),
		AnalysisEnabled: c.AnalysisEnabled,
		AnalysisStart:   formatTime(c.AnalysisStart),
		AnalysisStop:    formatTime(c.AnalysisStop),
		Timezone:        c.Timezone,
		PerUserTime:     c.PerUserTime,
		Tokens: dto.TokenRulesResponse{
			Mode:               c.TokenMode,
			MaxNumber:          c.TokenMaxNumber,
			MinIntervalSeconds: c.TokenMinIntervalSeconds,
			GenInitial:         c.TokenGenInitial,
			GenNumber:          c.TokenGenNumber,
			GenIntervalSeconds: c.TokenGenIntervalSeconds,
			GenMax:             c.TokenGenMax,
		},
		Submissions: dto.SubmissionRulesResponse{
			MaxSubmissionNumber:          c.MaxSubmissionNumber,
			MaxUserTestNumber:            c.MaxUserTestNumber,
			MinSubmissionIntervalSeconds: c.MinSubmissionIntervalSeconds,
			MinUserTestIntervalSeconds:   c.MinUserTestIntervalSeconds,
			AllowUserTests:               c.AllowUserTests,
		},
		ScorePrecision: c.ScorePrecision,
		Phase:          int(phase),
		PhaseName:      phase.String(),
		Version:        c.Version,
		CreatedAt:      formatTime(c.CreatedAt),
		UpdatedAt:      formatTime(c.UpdatedAt),
	}
}
