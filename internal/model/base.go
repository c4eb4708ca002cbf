package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 审计字段；*By 为外部账号系统的用户 ID
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// MarkCreated 以服务时钟填写创建与更新审计字段
func (m *BaseModel) MarkCreated(by string, at time.Time) {
	m.CreatedAt = at
	m.CreatedBy = &by
	m.MarkUpdated(by, at)
}

// MarkUpdated 填写更新审计字段
func (m *BaseModel) MarkUpdated(by string, at time.Time) {
	m.UpdatedAt = at
	m.UpdatedBy = &by
}

// VersionedModel 软删除 + 乐观锁；比赛配置使用
type VersionedModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"           json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:varchar(64)" json:"deleted_by,omitempty"`
	Version   int            `gorm:"not null;default:1" json:"version"`
}
