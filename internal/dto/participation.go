package dto

// ── 参赛 / 令牌 / 提交模块 DTO ──

// JoinContestRequest 登记参赛者请求
type JoinContestRequest struct {
	UserID       string `json:"user_id"      binding:"required,max=64"`
	Hidden       bool   `json:"hidden"`
	Unrestricted bool   `json:"unrestricted"`
}

// ParticipationResponse 参赛记录响应
type ParticipationResponse struct {
	ID           string `json:"id"`
	ContestID    string `json:"contest_id"`
	UserID       string `json:"user_id"`
	Hidden       bool   `json:"hidden"`
	Unrestricted bool   `json:"unrestricted"`
	CreatedAt    string `json:"created_at"`
}

// TokenStatusResponse 令牌状态
// Available 为 nil 且 Infinite=true 表示无限令牌
type TokenStatusResponse struct {
	ParticipationID  string  `json:"participation_id"`
	At               string  `json:"at"`
	Phase            int     `json:"phase"`
	PhaseName        string  `json:"phase_name"`
	Mode             string  `json:"mode"`
	Available        *int    `json:"available"`
	Infinite         bool    `json:"infinite"`
	Spent            int     `json:"spent"`
	CanSpend         bool    `json:"can_spend"`
	Reason           string  `json:"reason"`
	NextGenerationAt *string `json:"next_generation_at,omitempty"`
	SpendAllowedAt   *string `json:"spend_allowed_at,omitempty"`
}

// RedeemTokenRequest 使用令牌请求
type RedeemTokenRequest struct {
	SubmissionID string `json:"submission_id" binding:"required,max=64"`
}

// RedeemTokenResponse 使用令牌响应
type RedeemTokenResponse struct {
	TokenUseID   string              `json:"token_use_id"`
	SubmissionID string              `json:"submission_id"`
	Timestamp    string              `json:"timestamp"`
	Status       TokenStatusResponse `json:"status"`
}

// SubmitRequest 提交 / 自测请求（仅做频率与阶段校验并记录时间）
type SubmitRequest struct {
	Kind string `json:"kind" binding:"required,oneof=submission user_test"`
	Task string `json:"task" binding:"required,max=100"`
}

// SubmitResponse 提交记录响应
type SubmitResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Task      string `json:"task"`
	Official  bool   `json:"official"`
	Timestamp string `json:"timestamp"`
}

// SubmitCheckResponse 提交预检响应
type SubmitCheckResponse struct {
	ParticipationID string `json:"participation_id"`
	Kind            string `json:"kind"`
	Allowed         bool   `json:"allowed"`
}
