package eosreport

import (
	"time"

	"bookkeeping/internal/model"
	"bookkeeping/internal/shift"
)

const frontURL = "http://localhost:4000"

// 2023-03-17 07:00:00 苏黎世时间
const morningShiftStart int64 = 1679032800000

var calc = shift.MustCalculator(shift.DefaultTimezone)

func newTestFormatter() *Formatter {
	return NewFormatter(frontURL, calc.Location()).WithClock(func() time.Time {
		return time.Date(2023, 3, 17, 12, 0, 0, 0, time.UTC)
	})
}

func ptr[T any](v T) *T { return &v }

func at(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func tags(texts ...string) []model.Tag {
	out := make([]model.Tag, 0, len(texts))
	for i, text := range texts {
		out = append(out, model.Tag{ID: int64(i + 1), Text: text})
	}
	return out
}

func thirdIssueLog() model.Log {
	return model.Log{ID: 120, Title: "Third issue log", Tags: tags("ECS Shifter"), UserID: ptr("user-1")}
}

func fifthIssueLog() model.Log {
	return model.Log{ID: 124, Title: "Fifth issue log", Tags: tags("ECS Shifter", "FLP")}
}

func eorReasons() []model.EorReason {
	return []model.EorReason{
		{ID: 1, ReasonType: &model.ReasonType{Category: "DETECTORS", Title: ptr("CPV")}, Description: "EOR description"},
		{ID: 2, ReasonType: &model.ReasonType{Category: "DETECTORS", Title: ptr("TPC")}, Description: "2nd EOR description"},
	}
}

func customizedEcsReport() *Report {
	return &Report{
		Type:        ECS,
		Shift:       calc.FromTimestamp(morningShiftStart),
		ShifterName: "John Doe",
		TraineeName: "Trainee",
		IssuesLogs:  []model.Log{thirdIssueLog(), fifthIssueLog()},
		TypeSpecific: &TypeSpecific{
			Environments: []model.Environment{
				{
					ID:        "ENV1",
					BaseModel: model.BaseModel{CreatedAt: *at("2023-03-17T08:13:03Z"), UpdatedAt: *at("2023-03-17T08:13:03Z")},
					Runs: []model.Run{
						{
							ID:            108,
							RunNumber:     200,
							EnvironmentID: ptr("ENV1"),
							RunQuality:    model.RunQualityGood,
							TimeTrgStart:  at("2023-03-17T08:14:03Z"),
							TimeTrgEnd:    at("2023-03-17T09:16:06Z"),
							RunDuration:   ptr(int64((3600 + 2*60 + 3) * 1000)),
							EorReasons:    eorReasons(),
							Logs:          []model.Log{thirdIssueLog(), fifthIssueLog()},
							Definition:    "COMMISSIONING",
						},
					},
				},
				{
					ID:        "ENV2",
					BaseModel: model.BaseModel{CreatedAt: *at("2023-03-17T08:16:03Z"), UpdatedAt: *at("2023-03-17T08:16:03Z")},
				},
			},
			RunComments:         map[int64]string{200: "A run\ncomment"},
			EnvironmentComments: map[string]string{"ENV2": "An environment\ncomment"},
		},
		LhcTransitions:          "The\nLHC machine transitions",
		ShiftFlow:               "The\nshift flow",
		InfoFromPreviousShifter: "Info from\nprevious shifter",
		InfoForNextShifter:      "Info for\nnext shifter",
		InfoForRmRc:             "Info for\nRM and RC",
	}
}

const formattedCustomizedEcsReport = `# End of shift report - ECS - 3/17/2023 Morning
- shifter: John Doe
- trainee: Trainee

## Issues during the shift
- \[ECS Shifter\] - [Third issue log](http://localhost:4000?page=log-detail&id=120)
- \[ECS Shifter, FLP\] - [Fifth issue log](http://localhost:4000?page=log-detail&id=124)

## LHC
The
LHC machine transitions

## Shift flow
The
shift flow

## Environments and runs
- (17/03/2023, 09:13:03) [ENV1](http://localhost:4000?page=env-details&environmentId=ENV1)
    * (17/03/2023, 09:14:03) [200](http://localhost:4000?page=run-detail&id=108) - COMMISSIONING - 01:02:03 - good
        - EOR:
            * DETECTORS - CPV - EOR description
            * DETECTORS - TPC - 2nd EOR description
        - Logs:
            * \[ECS Shifter\] - [Third issue log](http://localhost:4000?page=log-detail&id=120)
            * \[ECS Shifter, FLP\] - [Fifth issue log](http://localhost:4000?page=log-detail&id=124)
        - Comment:
          A run
          comment

- (17/03/2023, 09:16:03) [ENV2](http://localhost:4000?page=env-details&environmentId=ENV2)
    * Comments:
      An environment
      comment

## Shift to shift transfer of information

### From previous shifter
Info from
previous shifter

### For next shifter
Info for
next shifter

### For RM/RC
Info for
RM and RC`

// emptyReportWith 返回只有专属片段不同的空报告
func emptyReportWith(reportType ReportType, fragment string) string {
	var middle string
	if fragment != "" {
		middle = "\n\n" + fragment + "\n"
	} else {
		middle = "\n"
	}
	return "# End of shift report - " + string(reportType) + " - 3/17/2023 Morning\n" +
		"- shifter: John Doe\n" +
		"- trainee: -\n" +
		"\n## Issues during the shift\n-\n" +
		"\n## LHC\n-\n" +
		"\n## Shift flow\n-" +
		middle +
		"\n## Shift to shift transfer of information\n" +
		"\n### From previous shifter\n-\n" +
		"\n### For next shifter\n-\n" +
		"\n### For RM/RC\n-"
}

func emptyReport(reportType ReportType) *Report {
	return &Report{
		Type:         reportType,
		Shift:        calc.FromTimestamp(morningShiftStart),
		ShifterName:  "John Doe",
		TypeSpecific: &TypeSpecific{},
	}
}

func qcPdpRuns() []RunGroup {
	qcLogs := []model.Log{
		{ID: 120, Title: "Third issue log", Tags: tags("QC/PDP Shifter")},
		{ID: 124, Title: "Fifth issue log", Tags: tags("QC/PDP Shifter", "FLP")},
	}
	duration := ptr(int64((3600 + 2*60 + 3) * 1000))
	detector := func(id int64, name string, quality string) model.RunDetector {
		return model.RunDetector{DetectorID: id, Detector: &model.Detector{ID: id, Name: name}, Quality: ptr(quality)}
	}
	return []RunGroup{
		{
			Definition: "COMMISSIONING",
			Runs: []model.Run{{
				ID: 108, RunNumber: 200, RunQuality: model.RunQualityGood,
				TimeTrgStart: at("2023-03-17T08:14:03Z"), TimeTrgEnd: at("2023-03-17T09:16:06Z"), RunDuration: duration,
				EorReasons: eorReasons(), Logs: qcLogs, Definition: "COMMISSIONING",
			}},
		},
		{
			Definition: "TECHNICAL",
			Runs: []model.Run{
				{
					ID: 109, RunNumber: 201, RunQuality: model.RunQualityGood,
					TimeTrgStart: at("2023-03-17T08:14:03Z"), TimeTrgEnd: at("2023-03-17T09:16:06Z"), RunDuration: duration,
					Detectors:  []model.RunDetector{detector(4, "ITS", "good"), detector(15, "TST", "bad")},
					Definition: "TECHNICAL",
				},
				{
					ID: 110, RunNumber: 202, RunQuality: model.RunQualityBad,
					TimeTrgStart: at("2023-03-17T08:14:03Z"), TimeTrgEnd: at("2023-03-17T09:16:06Z"), RunDuration: duration,
					Detectors:  []model.RunDetector{detector(7, "FT0", "bad"), detector(15, "TST", "BAD")},
					Definition: "TECHNICAL",
				},
			},
		},
	}
}

const formattedQcPdpFragment = "## Runs\n" +
	"\n" +
	"### COMMISSIONING\n" +
	"- [200](http://localhost:4000?page=run-detail&id=108) - 01:02:03 - good\n" +
	"    * Detectors: -\n" +
	"    * Detectors QC bad: -\n" +
	"    * EOR:\n" +
	"        * DETECTORS - CPV - EOR description\n" +
	"        * DETECTORS - TPC - 2nd EOR description\n" +
	"    * Logs:\n" +
	`        * \[QC/PDP Shifter\] - [Third issue log](http://localhost:4000?page=log-detail&id=120)` + "\n" +
	`        * \[QC/PDP Shifter, FLP\] - [Fifth issue log](http://localhost:4000?page=log-detail&id=124)` + "\n" +
	"    * Comment:\n" +
	"      A run\n" +
	"      comment\n" +
	"\n" +
	"### TECHNICAL\n" +
	"- [201](http://localhost:4000?page=run-detail&id=109) - 01:02:03 - good\n" +
	"    * Detectors: `ITS`, `TST`\n" +
	"    * Detectors QC bad: `TST`\n" +
	"- [202](http://localhost:4000?page=run-detail&id=110) - 01:02:03 - bad\n" +
	"    * Detectors: `FT0`, `TST`\n" +
	"    * Detectors QC bad: `FT0`, `TST`"
