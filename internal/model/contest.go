package model

import (
	"math"
	"time"

	"contest-core/internal/contest"
)

// Contest 比赛表 — 对应 contests
// 时长类字段统一以秒存储（*_seconds），nil 表示不限制。
type Contest struct {
	ContestID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"contest_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`

	// ── 令牌规则 ──
	TokenMode               string `gorm:"type:varchar(20);not null;default:'infinite'" json:"token_mode"` // disabled | finite | infinite
	TokenMaxNumber          *int   `json:"token_max_number,omitempty"`
	TokenMinIntervalSeconds int64  `gorm:"not null"              json:"token_min_interval_seconds"`
	TokenGenInitial         int    `gorm:"not null"              json:"token_gen_initial"`
	TokenGenNumber          int    `gorm:"not null"              json:"token_gen_number"`
	TokenGenIntervalSeconds int64  `gorm:"not null"              json:"token_gen_interval_seconds"`
	TokenGenMax             *int   `json:"token_gen_max,omitempty"`

	// ── 时间窗口 ──
	Start           time.Time `gorm:"not null"               json:"start"`
	Stop            time.Time `gorm:"not null"               json:"stop"`
	AnalysisEnabled bool      `gorm:"not null;default:false" json:"analysis_enabled"`
	AnalysisStart   time.Time `gorm:"not null"               json:"analysis_start"`
	AnalysisStop    time.Time `gorm:"not null"               json:"analysis_stop"`
	Timezone        *string   `gorm:"type:varchar(64)"       json:"timezone,omitempty"`
	PerUserTime     *int64    `json:"per_user_time_seconds,omitempty"`

	// ── 提交 / 自测限制 ──
	MaxSubmissionNumber          *int   `json:"max_submission_number,omitempty"`
	MaxUserTestNumber            *int   `json:"max_user_test_number,omitempty"`
	MinSubmissionIntervalSeconds *int64 `json:"min_submission_interval_seconds,omitempty"`
	MinUserTestIntervalSeconds   *int64 `json:"min_user_test_interval_seconds,omitempty"`

	ScorePrecision int  `gorm:"not null"           json:"score_precision"`
	AllowUserTests bool `gorm:"not null"           json:"allow_user_tests"`

	VersionedModel
}

// TableName 指定表名
func (Contest) TableName() string { return "contests" }

// Schedule 转换为阶段计算所需的时间表快照
func (c *Contest) Schedule() (contest.Schedule, error) {
	return contest.NewSchedule(c.Start, c.Stop, c.AnalysisEnabled, c.AnalysisStart, c.AnalysisStop)
}

// TokenPolicy 转换为令牌策略快照
func (c *Contest) TokenPolicy() (contest.TokenPolicy, error) {
	genInterval, err := seconds("token_gen_interval", c.TokenGenIntervalSeconds)
	if err != nil {
		return contest.TokenPolicy{}, err
	}
	minInterval, err := seconds("token_min_interval", c.TokenMinIntervalSeconds)
	if err != nil {
		return contest.TokenPolicy{}, err
	}
	return contest.NewTokenPolicy(contest.TokenPolicy{
		Mode:           contest.TokenMode(c.TokenMode),
		GenInitial:     c.TokenGenInitial,
		GenNumber:      c.TokenGenNumber,
		GenInterval:    genInterval,
		GenMax:         c.TokenGenMax,
		MaxTotalNumber: c.TokenMaxNumber,
		MinInterval:    minInterval,
	})
}

// SubmissionLimit 提交频率限制
func (c *Contest) SubmissionLimit() (contest.IntervalLimit, error) {
	interval, err := optionalSeconds("submission_min_interval", c.MinSubmissionIntervalSeconds)
	if err != nil {
		return contest.IntervalLimit{}, err
	}
	return contest.NewIntervalLimit("submission", c.MaxSubmissionNumber, interval)
}

// UserTestLimit 自测频率限制
func (c *Contest) UserTestLimit() (contest.IntervalLimit, error) {
	interval, err := optionalSeconds("user_test_min_interval", c.MinUserTestIntervalSeconds)
	if err != nil {
		return contest.IntervalLimit{}, err
	}
	return contest.NewIntervalLimit("user_test", c.MaxUserTestNumber, interval)
}

// maxSeconds time.Duration 能表示的最大秒数
const maxSeconds = math.MaxInt64 / int64(time.Second)

// seconds 秒数转 time.Duration；超出 time.Duration 范围时返回 ConfigError
func seconds(field string, s int64) (time.Duration, error) {
	if s > maxSeconds || s < -maxSeconds {
		return 0, &contest.ConfigError{Field: field, Reason: "超出允许范围"}
	}
	return time.Duration(s) * time.Second, nil
}

func optionalSeconds(field string, s *int64) (time.Duration, error) {
	if s == nil {
		return 0, nil
	}
	return seconds(field, *s)
}
