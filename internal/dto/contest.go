package dto

import "time"

// ── 比赛模块 DTO ──

// ContestRequest 创建 / 整体更新比赛的配置字段
// 令牌参数为空时使用配置文件中的默认值；分析窗口为空时取比赛结束时间
type ContestRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`

	Start           time.Time  `json:"start"            binding:"required"`
	Stop            time.Time  `json:"stop"             binding:"required"`
	AnalysisEnabled bool       `json:"analysis_enabled"`
	AnalysisStart   *time.Time `json:"analysis_start"`
	AnalysisStop    *time.Time `json:"analysis_stop"`
	Timezone        *string    `json:"timezone"              binding:"omitempty,max=64"`
	PerUserTime     *int64     `json:"per_user_time_seconds" binding:"omitempty,min=0"`

	TokenMode               *string `json:"token_mode"                 binding:"omitempty,oneof=disabled finite infinite"`
	TokenMaxNumber          *int    `json:"token_max_number"`
	TokenMinIntervalSeconds *int64  `json:"token_min_interval_seconds"`
	TokenGenInitial         *int    `json:"token_gen_initial"`
	TokenGenNumber          *int    `json:"token_gen_number"`
	TokenGenIntervalSeconds *int64  `json:"token_gen_interval_seconds"`
	TokenGenMax             *int    `json:"token_gen_max"`

	MaxSubmissionNumber          *int   `json:"max_submission_number"`
	MaxUserTestNumber            *int   `json:"max_user_test_number"`
	MinSubmissionIntervalSeconds *int64 `json:"min_submission_interval_seconds"`
	MinUserTestIntervalSeconds   *int64 `json:"min_user_test_interval_seconds"`

	ScorePrecision *int  `json:"score_precision" binding:"omitempty,min=0,max=10"`
	AllowUserTests *bool `json:"allow_user_tests"`
}

// CreateContestRequest 创建比赛请求
type CreateContestRequest struct {
	ContestRequest
}

// UpdateContestRequest 整体更新比赛请求（携带版本号做乐观锁校验）
type UpdateContestRequest struct {
	ContestRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ContestListRequest 比赛列表查询参数
type ContestListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	Status  string `form:"status"  binding:"omitempty,oneof=upcoming running finished"`
}

// TokenRulesResponse 令牌规则
type TokenRulesResponse struct {
	Mode               string `json:"mode"`
	MaxNumber          *int   `json:"max_number,omitempty"`
	MinIntervalSeconds int64  `json:"min_interval_seconds"`
	GenInitial         int    `json:"gen_initial"`
	GenNumber          int    `json:"gen_number"`
	GenIntervalSeconds int64  `json:"gen_interval_seconds"`
	GenMax             *int   `json:"gen_max,omitempty"`
}

// SubmissionRulesResponse 提交 / 自测限制
type SubmissionRulesResponse struct {
	MaxSubmissionNumber          *int   `json:"max_submission_number,omitempty"`
	MaxUserTestNumber            *int   `json:"max_user_test_number,omitempty"`
	MinSubmissionIntervalSeconds *int64 `json:"min_submission_interval_seconds,omitempty"`
	MinUserTestIntervalSeconds   *int64 `json:"min_user_test_interval_seconds,omitempty"`
	AllowUserTests               bool   `json:"allow_user_tests"`
}

// ContestResponse 比赛信息响应
type ContestResponse struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description"`
	Start           string                  `json:"start"`
	Stop            string                  `json:"stop"`
	AnalysisEnabled bool                    `json:"analysis_enabled"`
	AnalysisStart   string                  `json:"analysis_start"`
	AnalysisStop    string                  `json:"analysis_stop"`
	Timezone        *string                 `json:"timezone,omitempty"`
	PerUserTime     *int64                  `json:"per_user_time_seconds,omitempty"`
	Tokens          TokenRulesResponse      `json:"tokens"`
	Submissions     SubmissionRulesResponse `json:"submissions"`
	ScorePrecision  int                     `json:"score_precision"`
	Phase           int                     `json:"phase"`
	PhaseName       string                  `json:"phase_name"`
	Version         int                     `json:"version"`
	CreatedAt       string                  `json:"created_at"`
	UpdatedAt       string                  `json:"updated_at"`
}

// PhaseResponse 阶段查询响应
type PhaseResponse struct {
	ContestID       string `json:"contest_id"`
	At              string `json:"at"`
	Phase           int    `json:"phase"`
	PhaseName       string `json:"phase_name"`
	Start           string `json:"start"`
	Stop            string `json:"stop"`
	AnalysisEnabled bool   `json:"analysis_enabled"`
	AnalysisStart   string `json:"analysis_start"`
	AnalysisStop    string `json:"analysis_stop"`
}
