package dto

import (
	"time"

	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

// ── 班次模块 DTO ──

// ShiftTypeQuery 当前班次查询参数
type ShiftTypeQuery struct {
	ShiftType string `form:"shiftType" binding:"required,oneof=ECS QC/PDP SLIMOS SL DCS"`
}

// ShiftAtQuery 按时间戳查询班次
type ShiftAtQuery struct {
	Timestamp int64 `form:"timestamp" binding:"required,gt=0"`
}

// ShiftCalendarQuery 班次日历查询参数
type ShiftCalendarQuery struct {
	From  int64 `form:"from"  binding:"required,gt=0"`
	Count int   `form:"count" binding:"omitempty,min=1"`
}

// ShiftExportQuery 班次运行导出查询参数
type ShiftExportQuery struct {
	ShiftType  string `form:"shiftType"  binding:"required,oneof=ECS QC/PDP SLIMOS SL DCS"`
	ShiftStart int64  `form:"shiftStart" binding:"required,gt=0"`
}

// ShiftResponse 班次时间窗口
type ShiftResponse struct {
	Start  int64        `json:"start"` // 毫秒时间戳
	End    int64        `json:"end"`
	Period shift.Period `json:"period"`
}

// NewShiftResponse 由 shift.Shift 构造响应
func NewShiftResponse(s shift.Shift) ShiftResponse {
	return ShiftResponse{Start: s.Start.UnixMilli(), End: s.End.UnixMilli(), Period: s.Period}
}

// PreviousShifterInfo 上一班次交接信息，Value 与 ErrorMessage 互斥
type PreviousShifterInfo struct {
	Value        string `json:"value,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// IssueLogResponse 问题日志摘要
type IssueLogResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	AuthorID  *string   `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewIssueLogResponse 由日志构造摘要
func NewIssueLogResponse(log *model.Log) IssueLogResponse {
	return IssueLogResponse{
		ID:        log.ID,
		Title:     log.Title,
		Tags:      log.TagTexts(),
		AuthorID:  log.UserID,
		CreatedAt: log.CreatedAt,
	}
}

// ShiftDataResponse 当前班次数据（用于填写交班报告）
type ShiftDataResponse struct {
	Shift                   ShiftResponse       `json:"shift"`
	IssuesLogs              []IssueLogResponse  `json:"issues_logs"`
	InfoFromPreviousShifter PreviousShifterInfo `json:"info_from_previous_shifter"`
}
