package service

import (
	"time"

	"go.uber.org/zap"

	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

// ── 测试辅助 ──

const testFrontURL = "http://localhost:4000"

var (
	testCalc = shift.MustCalculator(shift.DefaultTimezone)
	// 2023-03-17 早班（苏黎世 07:00-15:00，UTC+1）
	morningShift = testCalc.FromTime(mustTime("2023-03-17T08:00:00Z"))
	testNow      = mustTime("2023-03-17T12:00:00Z")
)

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func at(value string) *time.Time {
	t := mustTime(value)
	return &t
}

func tags(texts ...string) []model.Tag {
	result := make([]model.Tag, len(texts))
	for i, text := range texts {
		result[i] = model.Tag{ID: int64(i + 1), Text: text}
	}
	return result
}

func newLog(id int64, title string, userID string, createdAt string, tagTexts ...string) model.Log {
	log := model.Log{
		ID:    id,
		Title: title,
		Text:  title,
		Tags:  tags(tagTexts...),
	}
	if userID != "" {
		log.UserID = ptr(userID)
	}
	log.CreatedAt = mustTime(createdAt)
	return log
}

func shifter() *model.User {
	return &model.User{UserID: "user-1", Name: "Anonymous", Email: "anonymous@example.com", Role: "shifter"}
}

// physicsRun 满足 PHYSICS 分类条件的运行
func physicsRun(runNumber int64, start, end string) model.Run {
	run := model.Run{
		ID:                    runNumber,
		RunNumber:             runNumber,
		RunQuality:            model.RunQualityGood,
		TimeO2Start:           at(start),
		TimeTrgStart:          at(start),
		ConcatenatedDetectors: ptr("ITS, FT0, TPC"),
		TriggerValue:          ptr("CTP"),
		DCS:                   ptr(true),
		DdFlp:                 ptr(true),
		EPN:                   ptr(true),
		TfbDdMode:             ptr("processing"),
		PdpWorkflowParameters: ptr("QC,CTF,GPU"),
		RunType:               &model.RunType{ID: 1, Name: "PHYSICS"},
		LhcFill:               &model.LhcFill{FillNumber: 1, StableBeamsStart: at("2023-03-17T00:00:00Z")},
	}
	if end != "" {
		run.TimeO2End = at(end)
		run.TimeTrgEnd = at(end)
		duration := mustTime(end).Sub(mustTime(start)).Milliseconds()
		run.RunDuration = &duration
	}
	return run
}

// technicalRun 满足 TECHNICAL 分类条件的运行
func technicalRun(runNumber int64, start, end string) model.Run {
	run := model.Run{
		ID:          runNumber,
		RunNumber:   runNumber,
		RunQuality:  model.RunQualityTest,
		TimeO2Start: at(start),
		TimeO2End:   at(end),
		PdpBeamType: ptr("technical"),
		RunType:     &model.RunType{ID: 2, Name: "TECHNICAL"},
	}
	duration := mustTime(end).Sub(mustTime(start)).Milliseconds()
	run.RunDuration = &duration
	return run
}

func newTestShiftService(repos *mockRepos) *shiftService {
	logger := zap.NewNop()
	users := NewUserService(repos.repository(), logger)
	svc := NewShiftService(repos.repository(), users, testCalc, 48*time.Hour, logger).(*shiftService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func newTestFormatter() *eosreport.Formatter {
	return eosreport.NewFormatter(testFrontURL, testCalc.Location()).WithClock(func() time.Time { return testNow })
}
