package eosreport

import (
	"fmt"
	"strings"
)

// Title 报告标题，同时作为报告日志的标题
func (f *Formatter) Title(r *Report) string {
	return fmt.Sprintf("End of shift report - %s - %s %s", r.Type, f.titleDate(r.Shift.Start), r.Shift.Period)
}

// Compose 渲染完整的交班报告 Markdown
func (f *Formatter) Compose(r *Report) string {
	var b strings.Builder

	b.WriteString("# " + f.Title(r) + "\n")
	b.WriteString("- shifter: " + orDash(r.ShifterName) + "\n")
	b.WriteString("- trainee: " + orDash(r.TraineeName) + "\n")
	b.WriteString("\n## Issues during the shift\n")
	b.WriteString(f.formatIssues(r) + "\n")
	b.WriteString("\n## LHC\n")
	b.WriteString(orDash(r.LhcTransitions) + "\n")
	b.WriteString("\n## Shift flow\n")
	b.WriteString(orDash(r.ShiftFlow))

	if fragment := f.TypeSpecific(r.Type, r.Shift, r.TypeSpecific); fragment != "" {
		b.WriteString("\n\n" + fragment + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n## Shift to shift transfer of information\n")
	b.WriteString("\n### From previous shifter\n")
	b.WriteString(orDash(r.InfoFromPreviousShifter) + "\n")
	b.WriteString("\n### For next shifter\n")
	b.WriteString(orDash(r.InfoForNextShifter) + "\n")
	b.WriteString("\n### For RM/RC\n")
	b.WriteString(orDash(r.InfoForRmRc))

	return b.String()
}

func (f *Formatter) formatIssues(r *Report) string {
	if len(r.IssuesLogs) == 0 {
		return emptyValue
	}
	lines := make([]string, 0, len(r.IssuesLogs))
	for i := range r.IssuesLogs {
		log := &r.IssuesLogs[i]
		tags := "**no tags**"
		if len(log.Tags) > 0 {
			tags = strings.Join(log.TagTexts(), ", ")
		}
		lines = append(lines, fmt.Sprintf(`- \[%s\] - [%s](%s)`, tags, log.Title, f.logLink(log.ID)))
	}
	return strings.Join(lines, "\n")
}

// TitleFromMarkdown 取 Markdown 第一行并去掉 "# " 前缀
func TitleFromMarkdown(markdown string) string {
	first, _, _ := strings.Cut(markdown, "\n")
	return strings.TrimPrefix(first, "# ")
}
