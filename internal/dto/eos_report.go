package dto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bookkeeping/internal/eosreport"
)

// ── 交班报告 DTO ──

var (
	ErrTypeSpecificMissing = errors.New("缺少报告类型专属数据")
	ErrInvalidRunComment   = errors.New("运行备注的键必须为运行号")
	ErrInvalidMagnets      = errors.New("磁体快照缺少时间")
)

// EosReportQuery 报告类型查询参数
type EosReportQuery struct {
	ReportType string `form:"reportType" binding:"required,oneof=ECS QC/PDP SLIMOS SL DCS"`
}

// CreateEosReportRequest 创建交班报告请求
type CreateEosReportRequest struct {
	ShiftStart              int64                `json:"shift_start"                binding:"required,gt=0"` // 毫秒时间戳
	TraineeName             string               `json:"trainee_name"               binding:"max=100"`
	LhcTransitions          string               `json:"lhc_transitions"`
	ShiftFlow               string               `json:"shift_flow"`
	InfoFromPreviousShifter string               `json:"info_from_previous_shifter"`
	InfoForNextShifter      string               `json:"info_for_next_shifter"`
	InfoForRmRc             string               `json:"info_for_rm_rc"`
	TypeSpecific            *TypeSpecificRequest `json:"type_specific"`
}

// TypeSpecificRequest 报告类型专属请求数据，各类型只使用其中部分字段
type TypeSpecificRequest struct {
	EnvironmentComments map[string]string  `json:"environment_comments"` // ECS
	RunComments         map[string]string  `json:"run_comments"`         // ECS、QC/PDP，键为运行号
	Magnets             *eosreport.Magnets `json:"magnets"`              // SL
	Alerts              string             `json:"alerts"`               // DCS
}

// Validate 按报告类型校验专属数据
func (r *CreateEosReportRequest) Validate(reportType eosreport.ReportType) error {
	if reportType == eosreport.Slimos {
		return nil
	}
	if r.TypeSpecific == nil {
		return ErrTypeSpecificMissing
	}
	if _, err := r.TypeSpecific.ParseRunComments(); err != nil {
		return err
	}
	if m := r.TypeSpecific.Magnets; m != nil {
		for i, snapshot := range m.Intermediates {
			if strings.TrimSpace(snapshot.Timestamp) == "" {
				return fmt.Errorf("%w: intermediates[%d]", ErrInvalidMagnets, i)
			}
		}
	}
	return nil
}

// ParseRunComments 将运行备注的键解析为运行号
func (t *TypeSpecificRequest) ParseRunComments() (map[int64]string, error) {
	comments := make(map[int64]string, len(t.RunComments))
	for key, comment := range t.RunComments {
		runNumber, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRunComment, key)
		}
		comments[runNumber] = comment
	}
	return comments, nil
}

// EosReportResponse 创建交班报告响应
type EosReportResponse struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Runs  []int64  `json:"runs"`
}

// EosReportPreviewResponse 交班报告预览响应
type EosReportPreviewResponse struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}
