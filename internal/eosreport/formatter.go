package eosreport

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"bookkeeping/internal/model"
)

const (
	defaultIndent = "    "
	emptyValue    = "-"

	// runningThreshold 未结束的运行超过该时长视为状态未知
	runningThreshold = 48 * time.Hour
)

// Formatter 交班报告渲染器
// 持有前端地址与值班时区，渲染结果只依赖输入，可并发使用
type Formatter struct {
	frontURL string
	loc      *time.Location
	now      func() time.Time
}

// NewFormatter 创建渲染器
// frontURL 为报告中链接指向的前端地址，loc 为日期渲染使用的时区
func NewFormatter(frontURL string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		frontURL: strings.TrimRight(frontURL, "/"),
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock 替换当前时间来源（运行时长判定使用）
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	clone := *f
	clone.now = now
	return &clone
}

// ── 通用辅助 ──

// Indent 为 text 的每一行加上 prefix，prefix 为空时使用 4 个空格
func Indent(text, prefix string) string {
	if prefix == "" {
		prefix = defaultIndent
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return emptyValue
	}
	return s
}

// link 生成前端页面链接，参数按给定顺序拼接
func (f *Formatter) link(page string, params ...string) string {
	var b strings.Builder
	b.WriteString(f.frontURL)
	b.WriteString("?page=")
	b.WriteString(url.QueryEscape(page))
	for i := 0; i+1 < len(params); i += 2 {
		b.WriteString("&")
		b.WriteString(params[i])
		b.WriteString("=")
		b.WriteString(url.QueryEscape(params[i+1]))
	}
	return b.String()
}

func (f *Formatter) logLink(id int64) string {
	return f.link("log-detail", "id", fmt.Sprint(id))
}

func (f *Formatter) runLink(id int64) string {
	return f.link("run-detail", "id", fmt.Sprint(id))
}

func (f *Formatter) runNumberLink(runNumber int64) string {
	return f.link("run-detail", "runNumber", fmt.Sprint(runNumber))
}

func (f *Formatter) environmentLink(id string) string {
	return f.link("env-details", "environmentId", id)
}

// dateTime 以 DD/MM/YYYY, HH:MM:SS 输出值班时区下的时间
func (f *Formatter) dateTime(t time.Time) string {
	return t.In(f.loc).Format("02/01/2006, 15:04:05")
}

func (f *Formatter) clock(t time.Time) string {
	return t.In(f.loc).Format("15:04:05")
}

// titleDate 标题中的日期，M/D/YYYY
func (f *Formatter) titleDate(t time.Time) string {
	return t.In(f.loc).Format("1/2/2006")
}

// formatLog 渲染嵌套列表中的日志引用
func (f *Formatter) formatLog(log *model.Log) string {
	tags := "**No tags**"
	if len(log.Tags) > 0 {
		tags = strings.Join(log.TagTexts(), ", ")
	}
	return fmt.Sprintf(`\[%s\] - [%s](%s)`, tags, log.Title, f.logLink(log.ID))
}

// FormatEorReason 渲染为 <category>[ - <title>] - <description>
func FormatEorReason(reason *model.EorReason) string {
	var b strings.Builder
	if reason.ReasonType != nil {
		b.WriteString(reason.ReasonType.Category)
		if reason.ReasonType.Title != nil && *reason.ReasonType.Title != "" {
			b.WriteString(" - ")
			b.WriteString(*reason.ReasonType.Title)
		}
	}
	b.WriteString(" - ")
	b.WriteString(reason.Description)
	return b.String()
}

// RunDuration 运行时长 HH:MM:SS，无时长为 -
// 未结束的运行按开始时间判定为 RUNNING 或 UNKNOWN
func (f *Formatter) RunDuration(run *model.Run) string {
	start := run.StartTime()
	if run.EndTime() == nil && start != nil {
		if f.now().Sub(*start) < runningThreshold {
			return "RUNNING"
		}
		return "UNKNOWN"
	}
	if run.RunDuration == nil {
		return emptyValue
	}
	total := *run.RunDuration / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "* " + item
	}
	return strings.Join(lines, "\n")
}

func definitionOf(run *model.Run) string {
	return orDash(run.Definition)
}
