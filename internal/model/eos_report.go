package model

import "time"

// EosReport 交班报告元数据表 — 对应 eos_reports
// 与报告日志一同写入，保存下一班次需要读取的结构化字段
type EosReport struct {
	ID                 int64     `gorm:"primaryKey"                         json:"id"`
	LogID              int64     `gorm:"not null"                           json:"log_id"`
	ReportType         string    `gorm:"type:varchar(16);not null"          json:"report_type"`
	ShiftStart         time.Time `gorm:"not null"                           json:"shift_start"`
	ShiftEnd           time.Time `gorm:"not null"                           json:"shift_end"`
	ShiftPeriod        string    `gorm:"type:varchar(16);not null"          json:"shift_period"`
	InfoForNextShifter *string   `gorm:"type:text"                          json:"info_for_next_shifter,omitempty"`
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (EosReport) TableName() string { return "eos_reports" }
