package eosreport

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

// typeSpecificFormatter 渲染报告类型专属片段，返回空字符串表示无专属片段
type typeSpecificFormatter func(f *Formatter, sh shift.Shift, ts *TypeSpecific) string

// SLIMOS 报告没有专属片段，因此不在表中
var typeSpecificFormatters = map[ReportType]typeSpecificFormatter{
	ECS:         (*Formatter).formatEcs,
	QcPdp:       (*Formatter).formatQcPdp,
	ShiftLeader: (*Formatter).formatShiftLeader,
	DCS:         (*Formatter).formatDcs,
}

// TypeSpecific 渲染报告类型专属片段
func (f *Formatter) TypeSpecific(t ReportType, sh shift.Shift, ts *TypeSpecific) string {
	format, ok := typeSpecificFormatters[t]
	if !ok {
		return ""
	}
	if ts == nil {
		ts = &TypeSpecific{}
	}
	return format(f, sh, ts)
}

// ════════════════════════════════════════════════════════════
// ECS
// ════════════════════════════════════════════════════════════

func (f *Formatter) formatEcs(_ shift.Shift, ts *TypeSpecific) string {
	if len(ts.Environments) == 0 {
		return "## Environments and runs\n" + emptyValue
	}

	entries := make([]string, 0, len(ts.Environments))
	for i := range ts.Environments {
		env := &ts.Environments[i]
		entries = append(entries, f.formatEcsEnvironment(env, ts.EnvironmentComments[env.ID], ts.RunComments))
	}
	return "## Environments and runs\n" + strings.Join(entries, "\n\n")
}

func (f *Formatter) formatEcsEnvironment(env *model.Environment, comment string, runComments map[int64]string) string {
	lines := []string{
		fmt.Sprintf("- (%s) [%s](%s)", f.dateTime(env.CreatedAt), env.ID, f.environmentLink(env.ID)),
	}
	for i := range env.Runs {
		run := &env.Runs[i]
		lines = append(lines, f.formatEcsRun(run, runComments[run.RunNumber]))
	}
	if comment != "" {
		lines = append(lines, "    * Comments:\n"+Indent(comment, "      "))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) formatEcsRun(run *model.Run, comment string) string {
	start := emptyValue
	if t := run.StartTime(); t != nil {
		start = f.dateTime(*t)
	}

	lines := []string{fmt.Sprintf(
		"    * (%s) [%d](%s) - %s - %s - %s",
		start, run.RunNumber, f.runLink(run.ID), definitionOf(run), f.RunDuration(run), run.RunQuality,
	)}

	const subIndent = "        "
	const itemIndent = "            "
	if len(run.EorReasons) > 0 {
		reasons := make([]string, 0, len(run.EorReasons))
		for i := range run.EorReasons {
			reasons = append(reasons, FormatEorReason(&run.EorReasons[i]))
		}
		lines = append(lines, subIndent+"- EOR:\n"+Indent(bulletList(reasons), itemIndent))
	}
	if len(run.Logs) > 0 {
		logs := make([]string, 0, len(run.Logs))
		for i := range run.Logs {
			logs = append(logs, f.formatLog(&run.Logs[i]))
		}
		lines = append(lines, subIndent+"- Logs:\n"+Indent(bulletList(logs), itemIndent))
	}
	if comment != "" {
		lines = append(lines, subIndent+"- Comment:\n"+Indent(comment, subIndent+"  "))
	}
	return strings.Join(lines, "\n")
}

// ════════════════════════════════════════════════════════════
// QC/PDP
// ════════════════════════════════════════════════════════════

func (f *Formatter) formatQcPdp(_ shift.Shift, ts *TypeSpecific) string {
	if len(ts.Runs) == 0 {
		return "## Runs\n" + emptyValue
	}

	panels := make([]string, 0, len(ts.Runs))
	for _, group := range ts.Runs {
		panels = append(panels, f.formatQcPdpPanel(group, ts.RunComments))
	}
	return "## Runs\n\n" + strings.Join(panels, "\n\n")
}

func (f *Formatter) formatQcPdpPanel(group RunGroup, runComments map[int64]string) string {
	if len(group.Runs) == 0 {
		return "### " + group.Definition + "\n" + emptyValue
	}
	runs := make([]string, 0, len(group.Runs))
	for i := range group.Runs {
		run := &group.Runs[i]
		runs = append(runs, f.formatQcPdpRun(run, runComments[run.RunNumber]))
	}
	return "### " + group.Definition + "\n" + strings.Join(runs, "\n")
}

func (f *Formatter) formatQcPdpRun(run *model.Run, comment string) string {
	var detectors, bad []string
	for _, rd := range run.Detectors {
		if rd.Detector == nil {
			continue
		}
		name := "`" + rd.Detector.Name + "`"
		detectors = append(detectors, name)
		if rd.Quality != nil && strings.EqualFold(*rd.Quality, model.DetectorQualityBad) {
			bad = append(bad, name)
		}
	}

	lines := []string{
		fmt.Sprintf("- [%d](%s) - %s - %s", run.RunNumber, f.runLink(run.ID), f.RunDuration(run), run.RunQuality),
		Indent("* Detectors: "+joinOrDash(detectors), ""),
		Indent("* Detectors QC bad: "+joinOrDash(bad), ""),
	}

	if len(run.EorReasons) > 0 {
		reasons := make([]string, 0, len(run.EorReasons))
		for i := range run.EorReasons {
			reasons = append(reasons, FormatEorReason(&run.EorReasons[i]))
		}
		lines = append(lines, Indent("* EOR:\n"+Indent(bulletList(reasons), ""), ""))
	}
	if len(run.Logs) > 0 {
		logs := make([]string, 0, len(run.Logs))
		for i := range run.Logs {
			logs = append(logs, f.formatLog(&run.Logs[i]))
		}
		lines = append(lines, Indent("* Logs:\n"+Indent(bulletList(logs), ""), ""))
	}
	if comment != "" {
		lines = append(lines, Indent("* Comment:\n"+Indent(comment, "  "), ""))
	}
	return strings.Join(lines, "\n")
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return emptyValue
	}
	return strings.Join(items, ", ")
}

// ════════════════════════════════════════════════════════════
// Shift Leader
// ════════════════════════════════════════════════════════════

func (f *Formatter) formatShiftLeader(sh shift.Shift, ts *TypeSpecific) string {
	sections := []string{
		"## Magnets\n" + f.formatMagnets(sh, ts.Magnets),
		"## Statistics of the shift\n" + formatTagsCounters(ts.TagsCounters),
		"## Runs\n" + f.formatShiftLeaderRuns(ts.Runs),
	}
	return strings.Join(sections, "\n\n")
}

func formatMagnetConfiguration(at string, cfg MagnetConfiguration) string {
	return fmt.Sprintf("- %s - Dipole %s - Solenoid %s", at, cfg.Dipole, cfg.Solenoid)
}

func (f *Formatter) formatMagnets(sh shift.Shift, magnets *Magnets) string {
	if magnets == nil {
		return emptyValue
	}

	intermediates := append([]MagnetSnapshot(nil), magnets.Intermediates...)
	sort.SliceStable(intermediates, func(i, j int) bool {
		return intermediates[i].Timestamp < intermediates[j].Timestamp
	})

	var lines []string
	if magnets.Start != nil {
		lines = append(lines, formatMagnetConfiguration(f.clock(sh.Start), *magnets.Start))
	}
	for _, snapshot := range intermediates {
		lines = append(lines, formatMagnetConfiguration(f.snapshotTime(snapshot.Timestamp), snapshot.MagnetConfiguration))
	}
	if magnets.End != nil {
		lines = append(lines, formatMagnetConfiguration(f.clock(sh.End), *magnets.End))
	}

	if len(lines) == 0 {
		return emptyValue
	}
	return strings.Join(lines, "\n")
}

// snapshotTime 快照时间为 RFC 3339 时按值班时区输出 HH:MM:SS，否则原样输出
func (f *Formatter) snapshotTime(timestamp string) string {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return f.clock(t)
	}
	return timestamp
}

func formatTagsCounters(counters []TagCounter) string {
	if len(counters) == 0 {
		return "- Bookkeeping entries per tags\n" + Indent("- **No entries**", "")
	}
	lines := make([]string, 0, len(counters))
	for _, c := range counters {
		lines = append(lines, fmt.Sprintf("- %s (%d)", c.Tag, c.Count))
	}
	return "- Bookkeeping entries per tags\n" + Indent(strings.Join(lines, "\n"), "")
}

func (f *Formatter) formatShiftLeaderRuns(groups []RunGroup) string {
	if len(groups) == 0 {
		return emptyValue
	}

	panels := make([]string, 0, len(groups))
	for _, group := range groups {
		lines := make([]string, 0, len(group.Runs))
		for _, run := range group.Runs {
			lines = append(lines, fmt.Sprintf("- [%d](%s)", run.RunNumber, f.runNumberLink(run.RunNumber)))
		}
		panels = append(panels, fmt.Sprintf("### %s (%d)\n%s", group.Definition, len(group.Runs), joinLinesOrDash(lines)))
	}
	return "\n" + strings.Join(panels, "\n\n")
}

func joinLinesOrDash(lines []string) string {
	if len(lines) == 0 {
		return emptyValue
	}
	return strings.Join(lines, "\n")
}

// ════════════════════════════════════════════════════════════
// DCS
// ════════════════════════════════════════════════════════════

func (f *Formatter) formatDcs(_ shift.Shift, ts *TypeSpecific) string {
	return "## Alert handling\n" + orDash(ts.Alerts)
}
