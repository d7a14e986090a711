package service

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"bookkeeping/internal/model"
)

// 运行分类
const (
	RunDefinitionPhysics       = "PHYSICS"
	RunDefinitionCosmics       = "COSMICS"
	RunDefinitionTechnical     = "TECHNICAL"
	RunDefinitionSynthetic     = "SYNTHETIC"
	RunDefinitionCalibration   = "CALIBRATION"
	RunDefinitionCommissioning = "COMMISSIONING"
)

var (
	physicsTfbDdModes        = []string{"processing", "processing-disk"}
	calibrationRunTypePrefix = []string{"CALIBRATION_", "PEDESTAL", "LASER", "PULSER", "NOISE"}

	cosmicsRunTypePattern = regexp.MustCompile(`(?i)^cosmics?$`)
	replayBeamPattern     = regexp.MustCompile(`pp|pbpb`)
)

// RunDefinition 根据运行配置推导运行分类
// now 用于补齐尚未结束的运行与稳定束流的结束时间
func RunDefinition(run *model.Run, now time.Time) string {
	runTypeName := ""
	if run.RunType != nil {
		runTypeName = run.RunType.Name
	}

	if isTrue(run.DCS) && isTrue(run.DdFlp) && isTrue(run.EPN) &&
		value(run.TriggerValue) == "CTP" &&
		slices.Contains(physicsTfbDdModes, value(run.TfbDdMode)) &&
		strings.Contains(value(run.PdpWorkflowParameters), "CTF") {

		detectors := value(run.ConcatenatedDetectors)
		if strings.Contains(detectors, "ITS") && strings.Contains(detectors, "FT0") && overlapsStableBeams(run, now) {
			return RunDefinitionPhysics
		}
		beamMode := value(run.LhcBeamMode)
		if cosmicsRunTypePattern.MatchString(runTypeName) && (beamMode == "" || beamMode == "NO BEAM") {
			return RunDefinitionCosmics
		}
	}

	upperRunType := strings.ToUpper(runTypeName)
	readoutCfg := value(run.ReadoutCfgURI)
	switch {
	case upperRunType == "TECHNICAL" && value(run.PdpBeamType) == "technical":
		return RunDefinitionTechnical
	case !isTrue(run.DCS) && value(run.TriggerValue) == "OFF" &&
		strings.Contains(readoutCfg, "replay") && replayBeamPattern.MatchString(readoutCfg):
		return RunDefinitionSynthetic
	case runTypeName != "" && hasAnyPrefix(upperRunType, calibrationRunTypePrefix):
		return RunDefinitionCalibration
	}
	return RunDefinitionCommissioning
}

// overlapsStableBeams 运行时间段与所在 fill 的稳定束流时间段是否有交集
func overlapsStableBeams(run *model.Run, now time.Time) bool {
	if run.LhcFill == nil || run.LhcFill.StableBeamsStart == nil {
		return false
	}
	start := run.StartTime()
	if start == nil {
		return false
	}

	sbStart := *run.LhcFill.StableBeamsStart
	sbEnd := now
	if run.LhcFill.StableBeamsEnd != nil {
		sbEnd = *run.LhcFill.StableBeamsEnd
	}
	end := now
	if e := run.EndTime(); e != nil {
		end = *e
	}

	return !sbEnd.Before(*start) && !end.Before(sbStart)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
