// Package eosreport 将班次数据渲染为交班（End of Shift）报告 Markdown。
package eosreport

import (
	"errors"
	"fmt"

	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

// ErrInvalidReportType 报告类型不在 ECS、QC/PDP、SLIMOS、SL、DCS 之内
var ErrInvalidReportType = errors.New("无效的交班报告类型")

// ReportType 交班报告类型
type ReportType string

const (
	ECS         ReportType = "ECS"
	QcPdp       ReportType = "QC/PDP"
	Slimos      ReportType = "SLIMOS"
	ShiftLeader ReportType = "SL"
	DCS         ReportType = "DCS"
)

// ReportTypes 全部报告类型
var ReportTypes = []ReportType{ECS, QcPdp, Slimos, ShiftLeader, DCS}

// ParseReportType 解析报告类型字符串
func ParseReportType(s string) (ReportType, error) {
	for _, t := range ReportTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReportType, s)
}

// ── 标签 ──

// TagEoS 交班报告日志专用标签，聚合时始终排除，避免报告引用报告
const TagEoS = "EoS"

// TagFilter 日志标签过滤条件：至少带一个 Include 标签且不带任何 Exclude 标签
type TagFilter struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// Match 判断日志是否满足过滤条件
func (f TagFilter) Match(log *model.Log) bool {
	return log.HasTag(f.Include...) && !log.HasTag(f.Exclude...)
}

var issueTagsByType = map[ReportType][]string{
	ECS:         {"ECS", "ECS Shifter"},
	QcPdp:       {"QC/PDP", "QC/PDP Shifter"},
	ShiftLeader: {"Shift Leader", "ECS Shifter", "QC/PDP Shifter", "DCS Shifter"},
	DCS:         {"DCS Shifter"},
	Slimos:      {"SLIMOS"},
}

// TagFilterFor 返回报告类型对应的问题日志过滤条件
func TagFilterFor(t ReportType) TagFilter {
	include := append([]string(nil), issueTagsByType[t]...)
	return TagFilter{Include: include, Exclude: []string{TagEoS}}
}

var reportTagsByType = map[ReportType][]string{
	ECS:         {"ECS Shifter", "CTP", "FLP", "EPN"},
	QcPdp:       {"QC/PDP Shifter"},
	ShiftLeader: {"Shift Leader"},
	DCS:         {"DCS Shifter"},
	Slimos:      nil,
}

// ReportTags 返回报告日志应携带的标签：EoS + 类型标签 + 类型固定标签
func ReportTags(t ReportType) []string {
	tags := []string{TagEoS, string(t)}
	return append(tags, reportTagsByType[t]...)
}

// ── 报告数据 ──

// Report 渲染一份交班报告所需的全部输入
type Report struct {
	Type                    ReportType
	Shift                   shift.Shift
	ShifterName             string
	TraineeName             string
	IssuesLogs              []model.Log
	LhcTransitions          string
	ShiftFlow               string
	InfoFromPreviousShifter string
	InfoForNextShifter      string
	InfoForRmRc             string
	TypeSpecific            *TypeSpecific
}

// TypeSpecific 各报告类型专属数据，未使用的字段保持零值
type TypeSpecific struct {
	// ECS
	Environments        []model.Environment
	EnvironmentComments map[string]string
	// ECS、QC/PDP
	RunComments map[int64]string
	// QC/PDP、SL
	Runs []RunGroup
	// SL
	Magnets      *Magnets
	TagsCounters []TagCounter
	// DCS
	Alerts string
}

// RunNumbers 返回报告涉及的全部运行号，用于关联报告日志
func (ts *TypeSpecific) RunNumbers() []int64 {
	if ts == nil {
		return nil
	}
	var numbers []int64
	for _, env := range ts.Environments {
		for _, run := range env.Runs {
			numbers = append(numbers, run.RunNumber)
		}
	}
	for _, group := range ts.Runs {
		for _, run := range group.Runs {
			numbers = append(numbers, run.RunNumber)
		}
	}
	return numbers
}

// RunGroup 同一分类（definition）下的运行，按首次出现顺序排列
type RunGroup struct {
	Definition string      `json:"definition"`
	Runs       []model.Run `json:"runs"`
}

// GroupRunsByDefinition 按 Definition 分组，组顺序为首次出现顺序
func GroupRunsByDefinition(runs []model.Run) []RunGroup {
	var groups []RunGroup
	index := make(map[string]int)
	for _, run := range runs {
		i, ok := index[run.Definition]
		if !ok {
			i = len(groups)
			index[run.Definition] = i
			groups = append(groups, RunGroup{Definition: run.Definition})
		}
		groups[i].Runs = append(groups[i].Runs, run)
	}
	return groups
}

// MagnetConfiguration 磁体配置
type MagnetConfiguration struct {
	Solenoid string `json:"solenoid"`
	Dipole   string `json:"dipole"`
}

// MagnetSnapshot 班次中途的磁体配置快照
type MagnetSnapshot struct {
	Timestamp           string              `json:"timestamp"`
	MagnetConfiguration MagnetConfiguration `json:"magnet_configuration"`
}

// Magnets 班次起止及中途的磁体配置
type Magnets struct {
	Start         *MagnetConfiguration `json:"start,omitempty"`
	Intermediates []MagnetSnapshot     `json:"intermediates"`
	End           *MagnetConfiguration `json:"end,omitempty"`
}

// TagCounter 标签出现次数
type TagCounter struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
