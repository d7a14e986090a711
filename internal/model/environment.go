package model

import "time"

// 环境终态
const (
	EnvironmentStatusDestroyed = "DESTROYED"
	EnvironmentStatusError     = "ERROR"
)

// Environment 环境表 — 对应 environments
type Environment struct {
	ID     string  `gorm:"type:varchar(45);primaryKey" json:"id"`
	Status *string `gorm:"type:varchar(32)"            json:"status,omitempty"`
	BaseModel

	// 关联
	Runs    []Run                    `gorm:"foreignKey:EnvironmentID"          json:"runs"`
	History []EnvironmentHistoryItem `gorm:"foreignKey:EnvironmentID"          json:"history,omitempty"`
}

// TableName 指定表名
func (Environment) TableName() string { return "environments" }

// EnvironmentHistoryItem 环境状态历史 — 对应 environment_history_items
type EnvironmentHistoryItem struct {
	ID            int64     `gorm:"primaryKey"                         json:"id"`
	EnvironmentID string    `gorm:"type:varchar(45);not null;index"    json:"environment_id"`
	Status        string    `gorm:"type:varchar(32);not null"          json:"status"`
	StatusMessage *string   `gorm:"type:text"                          json:"status_message,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (EnvironmentHistoryItem) TableName() string { return "environment_history_items" }
