package model

import "time"

// Participation 参赛记录表 — 对应 participations
// UserID 来自外部账号系统，这里只做引用。
type Participation struct {
	ParticipationID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"participation_id"`
	ContestID        string `gorm:"type:uuid;not null;uniqueIndex:uq_participation_contest_user" json:"contest_id"`
	UserID           string `gorm:"type:varchar(64);not null;uniqueIndex:uq_participation_contest_user" json:"user_id"`
	Hidden           bool   `gorm:"not null;default:false" json:"hidden"`       // 不出现在导出与排名中
	Unrestricted     bool   `gorm:"not null;default:false" json:"unrestricted"` // 不受提交频率限制
	BaseModel

	// 关联
	Contest *Contest `gorm:"foreignKey:ContestID;references:ContestID" json:"contest,omitempty"`
}

// TableName 指定表名
func (Participation) TableName() string { return "participations" }

// TokenUse 令牌使用记录表 — 对应 token_uses（只追加）
type TokenUse struct {
	TokenUseID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"token_use_id"`
	ParticipationID string    `gorm:"type:uuid;not null;index"                       json:"participation_id"`
	SubmissionID    string    `gorm:"type:varchar(64);not null;uniqueIndex"          json:"submission_id"`
	Timestamp       time.Time `gorm:"not null"                                       json:"timestamp"`
}

// TableName 指定表名
func (TokenUse) TableName() string { return "token_uses" }

// 提交事件类型
const (
	SubmissionKindSubmission = "submission"
	SubmissionKindUserTest   = "user_test"
)

// SubmissionEvent 提交 / 自测事件表 — 对应 submission_events
// 只记录频率限制所需的时间戳，评测本身由外部系统负责。
type SubmissionEvent struct {
	SubmissionEventID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_event_id"`
	ParticipationID   string    `gorm:"type:uuid;not null;index:idx_submission_events_lookup" json:"participation_id"`
	Kind              string    `gorm:"type:varchar(20);not null;index:idx_submission_events_lookup" json:"kind"` // submission | user_test
	Task              string    `gorm:"type:varchar(100);not null"                     json:"task"`
	Official          bool      `gorm:"not null"                                       json:"official"`
	Timestamp         time.Time `gorm:"not null"                                       json:"timestamp"`
}

// TableName 指定表名
func (SubmissionEvent) TableName() string { return "submission_events" }
