package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

func logIDs(logs []model.Log) []int64 {
	ids := make([]int64, len(logs))
	for i := range logs {
		ids[i] = logs[i].ID
	}
	return ids
}

func seedShifter(repos *mockRepos) {
	_ = repos.user.Create(context.Background(), shifter())
}

// ── Aggregate 测试 ──

func TestShiftService_Aggregate_IssuesLogs(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)

	reply := newLog(3, "reply by shifter", "user-1", "2023-03-17T09:00:00Z")
	reply.ParentLogID = ptr(int64(1))
	repos.log.add(
		newLog(1, "ECS issue by other", "user-2", "2023-03-17T07:00:00Z", "ECS"),
		newLog(2, "own log", "user-1", "2023-03-17T08:00:00Z", "DCS"),
		reply,
		newLog(9, "own ECS issue", "user-1", "2023-03-17T09:30:00Z", "ECS Shifter"),
		newLog(4, "ECS shifter issue", "user-2", "2023-03-17T10:00:00Z", "ECS Shifter"),
		newLog(5, "previous EoS report", "user-2", "2023-03-17T11:00:00Z", "ECS", eosreport.TagEoS),
		newLog(6, "unrelated", "user-2", "2023-03-17T12:00:00Z", "TPC"),
		newLog(7, "outside shift", "user-1", "2023-03-17T14:00:00Z", "ECS"),
		newLog(8, "own EoS report", "user-1", "2023-03-17T13:00:00Z", eosreport.TagEoS),
	)

	svc := newTestShiftService(repos)
	data, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.ECS,
		UserID:     "user-1",
		Filter:     eosreport.TagFilterFor(eosreport.ECS),
	})
	if err != nil {
		t.Fatalf("Aggregate 失败: %v", err)
	}

	// 本人日志在前（含回复），标签命中日志去重后追加；9 既是本人日志又命中标签，只出现一次
	want := []int64{2, 3, 9, 8, 1, 4}
	if diff := cmp.Diff(want, logIDs(data.IssuesLogs)); diff != "" {
		t.Errorf("问题日志不符 (-want +got):\n%s", diff)
	}
	if data.User == nil || data.User.Name != "Anonymous" {
		t.Errorf("期望值班人员为 Anonymous，实际: %+v", data.User)
	}
}

func TestShiftService_Aggregate_UserNotFound(t *testing.T) {
	repos := newMockRepos()
	svc := newTestShiftService(repos)

	_, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.DCS,
		UserID:     "missing",
		Filter:     eosreport.TagFilterFor(eosreport.DCS),
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestShiftService_Aggregate_DataAccessErrorUnchanged(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)
	dbErr := errors.New("connection reset")
	repos.run.err = dbErr

	svc := newTestShiftService(repos)
	_, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.QcPdp,
		UserID:     "user-1",
		Filter:     eosreport.TagFilterFor(eosreport.QcPdp),
	})
	if !errors.Is(err, dbErr) {
		t.Errorf("期望原样返回数据访问错误，实际: %v", err)
	}
}

func TestShiftService_Aggregate_QcPdpRuns(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)

	physics := physicsRun(100, "2023-03-17T06:30:00Z", "2023-03-17T07:30:00Z")
	reply := newLog(11, "reply", "user-2", "2023-03-17T07:10:00Z", "QC/PDP")
	reply.ParentLogID = ptr(int64(10))
	physics.Logs = []model.Log{
		newLog(10, "QC issue", "user-2", "2023-03-17T07:00:00Z", "QC/PDP"),
		reply,
		newLog(12, "TPC only", "user-2", "2023-03-17T07:20:00Z", "TPC"),
		newLog(13, "EoS", "user-2", "2023-03-17T07:25:00Z", "QC/PDP", eosreport.TagEoS),
	}
	repos.run.runs = []model.Run{
		physics,
		technicalRun(101, "2023-03-17T08:00:00Z", "2023-03-17T09:00:00Z"),
		physicsRun(102, "2023-03-17T10:00:00Z", "2023-03-17T11:00:00Z"),
		physicsRun(99, "2023-03-16T20:00:00Z", "2023-03-16T21:00:00Z"), // 班次外
	}

	svc := newTestShiftService(repos)
	data, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.QcPdp,
		UserID:     "user-1",
		Filter:     eosreport.TagFilterFor(eosreport.QcPdp),
	})
	if err != nil {
		t.Fatalf("Aggregate 失败: %v", err)
	}

	groups := data.TypeSpecific.Runs
	if len(groups) != 2 {
		t.Fatalf("期望 2 个分组，实际 %d", len(groups))
	}
	if groups[0].Definition != RunDefinitionPhysics || len(groups[0].Runs) != 2 {
		t.Errorf("第一组期望 PHYSICS x2，实际 %s x%d", groups[0].Definition, len(groups[0].Runs))
	}
	if groups[1].Definition != RunDefinitionTechnical || len(groups[1].Runs) != 1 {
		t.Errorf("第二组期望 TECHNICAL x1，实际 %s x%d", groups[1].Definition, len(groups[1].Runs))
	}

	// 运行日志：仅保留满足标签过滤的根日志
	if diff := cmp.Diff([]int64{10}, logIDs(groups[0].Runs[0].Logs)); diff != "" {
		t.Errorf("运行日志不符 (-want +got):\n%s", diff)
	}
	if data.TypeSpecific.TagsCounters != nil {
		t.Error("QC/PDP 报告不应统计标签")
	}
	if data.TypeSpecific.Environments != nil {
		t.Error("QC/PDP 报告不应查询环境")
	}
}

func TestShiftService_Aggregate_EcsEnvironments(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)

	env := model.Environment{ID: "EnvA", Runs: []model.Run{physicsRun(200, "2023-03-17T06:30:00Z", "2023-03-17T07:30:00Z")}}
	env.CreatedAt = mustTime("2023-03-17T06:00:00Z")
	future := model.Environment{ID: "EnvB"}
	future.CreatedAt = mustTime("2023-03-17T15:00:00Z")
	repos.environment.environments = []model.Environment{env, future}

	svc := newTestShiftService(repos)
	data, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.ECS,
		UserID:     "user-1",
		Filter:     eosreport.TagFilterFor(eosreport.ECS),
	})
	if err != nil {
		t.Fatalf("Aggregate 失败: %v", err)
	}

	envs := data.TypeSpecific.Environments
	if len(envs) != 1 || envs[0].ID != "EnvA" {
		t.Fatalf("期望仅 EnvA，实际 %+v", envs)
	}
	if envs[0].Runs[0].Definition != RunDefinitionPhysics {
		t.Errorf("期望运行分类 PHYSICS，实际 %s", envs[0].Runs[0].Definition)
	}
	if repos.environment.lastGrace != 48*time.Hour {
		t.Errorf("期望 grace=48h，实际 %v", repos.environment.lastGrace)
	}
	if data.TypeSpecific.Runs != nil {
		t.Error("ECS 报告不应单独查询运行")
	}
}

func TestShiftService_Aggregate_ShiftLeaderTagCounters(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)

	reply := newLog(5, "reply", "user-2", "2023-03-17T09:30:00Z", "TPC", "TPC")
	reply.ParentLogID = ptr(int64(1))
	repos.log.add(
		newLog(1, "a", "user-2", "2023-03-17T07:00:00Z", "DCS", "TPC"),
		newLog(2, "b", "user-2", "2023-03-17T08:00:00Z", "ECS"),
		newLog(3, "c", "user-2", "2023-03-17T09:00:00Z", "TPC"),
		newLog(4, "d", "user-2", "2023-03-17T09:10:00Z", "ECS Shifter", eosreport.TagEoS),
		reply,
		newLog(6, "e", "user-2", "2023-03-17T10:00:00Z", "ECS"),
	)
	repos.run.runs = []model.Run{physicsRun(300, "2023-03-17T07:00:00Z", "2023-03-17T08:00:00Z")}

	svc := newTestShiftService(repos)
	data, err := svc.Aggregate(context.Background(), AggregateParams{
		Shift:      morningShift,
		ReportType: eosreport.ShiftLeader,
		UserID:     "user-1",
		Filter:     eosreport.TagFilterFor(eosreport.ShiftLeader),
	})
	if err != nil {
		t.Fatalf("Aggregate 失败: %v", err)
	}

	want := []eosreport.TagCounter{
		{Tag: "TPC", Count: 2},
		{Tag: "ECS", Count: 2},
		{Tag: "DCS", Count: 1},
	}
	if diff := cmp.Diff(want, data.TypeSpecific.TagsCounters); diff != "" {
		t.Errorf("标签统计不符 (-want +got):\n%s", diff)
	}
	if len(data.TypeSpecific.Runs) != 1 {
		t.Errorf("期望 1 个运行分组，实际 %d", len(data.TypeSpecific.Runs))
	}
}

func TestCountTags_TiesKeepFirstSeenOrder(t *testing.T) {
	logs := []model.Log{
		{Tags: tags("B", "A")},
		{Tags: tags("C")},
		{Tags: tags("C", "A")},
	}

	got := countTags(logs)
	want := []eosreport.TagCounter{{Tag: "A", Count: 2}, {Tag: "C", Count: 2}, {Tag: "B", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("countTags 不符 (-want +got):\n%s", diff)
	}
}

// ── PreviousShifterInfo 测试 ──

func TestShiftService_PreviousShifterInfo(t *testing.T) {
	previous := testCalc.Previous(morningShift)
	report := func(info *string) model.EosReport {
		return model.EosReport{ReportType: "ECS", ShiftStart: previous.Start, InfoForNextShifter: info}
	}

	tests := []struct {
		name      string
		reports   []model.EosReport
		wantValue string
		wantError string
	}{
		{"无报告", nil, "", "No ECS EoS reports found from the previous shift"},
		{"多份报告", []model.EosReport{report(ptr("a")), report(ptr("b"))}, "", "Multiple ECS EoS reports found from the previous shift"},
		{"字段缺失", []model.EosReport{report(nil)}, "", "EoS report from the previous shift is missing the information transfer field"},
		{"字段为空", []model.EosReport{report(ptr("  "))}, "", "Previous EoS report contains no information for next shifter"},
		{"正常", []model.EosReport{report(ptr("Check TPC"))}, "Check TPC", ""},
		{"其他类型报告不计入", []model.EosReport{{ReportType: "DCS", ShiftStart: previous.Start, InfoForNextShifter: ptr("x")}}, "", "No ECS EoS reports found from the previous shift"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := newMockRepos()
			repos.eosReport.reports = tt.reports
			svc := newTestShiftService(repos)

			info, err := svc.PreviousShifterInfo(context.Background(), eosreport.ECS, morningShift)
			if err != nil {
				t.Fatalf("PreviousShifterInfo 失败: %v", err)
			}
			if info.Value != tt.wantValue || info.ErrorMessage != tt.wantError {
				t.Errorf("期望 {%q, %q}，实际 {%q, %q}", tt.wantValue, tt.wantError, info.Value, info.ErrorMessage)
			}
		})
	}
}

func TestShiftService_PreviousShifterInfo_AcrossDST(t *testing.T) {
	// 2023-10-29 夏令时结束，夜班为 9 小时，早班的上一班次从 10-28 21:00Z 开始
	current := testCalc.FromTime(mustTime("2023-10-29T08:00:00Z"))
	repos := newMockRepos()
	repos.eosReport.reports = []model.EosReport{{
		ReportType:         "SL",
		ShiftStart:         mustTime("2023-10-28T21:00:00Z"),
		InfoForNextShifter: ptr("DST night"),
	}}
	svc := newTestShiftService(repos)

	info, err := svc.PreviousShifterInfo(context.Background(), eosreport.ShiftLeader, current)
	if err != nil {
		t.Fatalf("PreviousShifterInfo 失败: %v", err)
	}
	if info.Value != "DST night" {
		t.Errorf("期望读取到夏令时夜班的报告，实际: %+v", info)
	}
}

func TestShiftService_PreviousShifterInfo_DataAccessError(t *testing.T) {
	repos := newMockRepos()
	dbErr := errors.New("timeout")
	repos.eosReport.err = dbErr
	svc := newTestShiftService(repos)

	_, err := svc.PreviousShifterInfo(context.Background(), eosreport.ECS, morningShift)
	if !errors.Is(err, dbErr) {
		t.Errorf("期望原样返回数据访问错误，实际: %v", err)
	}
}

// ── GetShiftData 测试 ──

func TestShiftService_GetShiftData(t *testing.T) {
	repos := newMockRepos()
	seedShifter(repos)
	repos.log.add(
		newLog(1, "own", "user-1", "2023-03-17T07:00:00Z"),
		newLog(2, "dcs", "user-2", "2023-03-17T08:00:00Z", "DCS Shifter"),
	)
	repos.eosReport.reports = []model.EosReport{{
		ReportType:         "DCS",
		ShiftStart:         testCalc.Previous(morningShift).Start,
		InfoForNextShifter: ptr("watch the cooling"),
	}}

	svc := newTestShiftService(repos)
	data, err := svc.GetShiftData(context.Background(), "user-1", eosreport.DCS)
	if err != nil {
		t.Fatalf("GetShiftData 失败: %v", err)
	}

	if data.Shift.Start != morningShift.Start.UnixMilli() || data.Shift.Period != shift.Morning {
		t.Errorf("班次不符: %+v", data.Shift)
	}
	if len(data.IssuesLogs) != 2 || data.IssuesLogs[0].ID != 1 || data.IssuesLogs[1].ID != 2 {
		t.Errorf("问题日志不符: %+v", data.IssuesLogs)
	}
	if data.InfoFromPreviousShifter.Value != "watch the cooling" {
		t.Errorf("交接信息不符: %+v", data.InfoFromPreviousShifter)
	}
}

func TestShiftService_GetShiftData_UserNotFound(t *testing.T) {
	svc := newTestShiftService(newMockRepos())

	_, err := svc.GetShiftData(context.Background(), "missing", eosreport.ECS)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestShiftService_At(t *testing.T) {
	svc := newTestShiftService(newMockRepos())

	got := svc.At(mustTime("2023-10-29T01:00:00Z").UnixMilli())
	want := shift.Shift{
		Start:  mustTime("2023-10-28T21:00:00Z"),
		End:    mustTime("2023-10-29T06:00:00Z"),
		Period: shift.Night,
	}
	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) || got.Period != want.Period {
		t.Errorf("At = %+v, 期望 %+v", got, want)
	}
	if cur := svc.Current(); !cur.Start.Equal(morningShift.Start) {
		t.Errorf("Current = %+v, 期望 %+v", cur, morningShift)
	}
}
