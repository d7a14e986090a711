package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookkeeping/internal/dto"
	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/model"
	"bookkeeping/internal/repository"
	"bookkeeping/internal/shift"
)

// AggregateParams 班次数据聚合参数
type AggregateParams struct {
	Shift      shift.Shift
	ReportType eosreport.ReportType
	UserID     string
	// Filter 问题日志与运行日志的标签过滤条件，调用时显式传入
	Filter eosreport.TagFilter
}

// ShiftData 一个班次内用于生成交班报告的数据
type ShiftData struct {
	Shift      shift.Shift
	User       *model.User
	IssuesLogs []model.Log
	// TypeSpecific 仅填充由数据库聚合得到的字段（环境、运行、标签统计）
	TypeSpecific *eosreport.TypeSpecific
}

// ShiftService 班次业务接口
type ShiftService interface {
	// Current 当前时刻所在班次
	Current() shift.Shift
	// At 毫秒时间戳所在班次
	At(ms int64) shift.Shift
	// Aggregate 聚合班次内的日志、运行、环境与标签统计
	Aggregate(ctx context.Context, params AggregateParams) (*ShiftData, error)
	// GetShiftData 当前班次的问题日志与上一班次交接信息
	GetShiftData(ctx context.Context, userID string, reportType eosreport.ReportType) (*dto.ShiftDataResponse, error)
	// PreviousShifterInfo 读取上一班次同类型报告留给本班次的信息
	PreviousShifterInfo(ctx context.Context, reportType eosreport.ReportType, current shift.Shift) (dto.PreviousShifterInfo, error)
}

type shiftService struct {
	repo   *repository.Repository
	users  UserService
	calc   *shift.Calculator
	grace  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
// grace 为未进入终态的环境在班次开始前仍被纳入报告的时长
func NewShiftService(
	repo *repository.Repository,
	users UserService,
	calc *shift.Calculator,
	grace time.Duration,
	logger *zap.Logger,
) ShiftService {
	return &shiftService{
		repo:   repo,
		users:  users,
		calc:   calc,
		grace:  grace,
		now:    time.Now,
		logger: logger,
	}
}

func (s *shiftService) Current() shift.Shift {
	return s.calc.FromTime(s.now())
}

func (s *shiftService) At(ms int64) shift.Shift {
	return s.calc.FromTimestamp(ms)
}

// ═══════════════════════════════════════════════════════════
// Aggregate — 班次数据聚合
// ═══════════════════════════════════════════════════════════
//
// 相互独立的查询并发执行，任一失败即取消其余查询：
//   - 值班人员本人在班次内的日志（含回复）
//   - 班次内满足标签过滤的日志
//   - ECS: 班次内存活的环境及其运行
//   - QC/PDP、SL: 与班次有交集的运行
//   - SL: 班次内根日志的标签统计

func (s *shiftService) Aggregate(ctx context.Context, p AggregateParams) (*ShiftData, error) {
	period := repository.Period{From: p.Shift.Start, To: p.Shift.End}
	filter := repository.TagFilter(p.Filter)

	var (
		user         *model.User
		userLogs     []model.Log
		taggedLogs   []model.Log
		environments []model.Environment
		runs         []model.Run
		rootLogs     []model.Log
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		user, err = s.users.Get(gctx, p.UserID)
		return err
	})

	g.Go(func() error {
		var err error
		userLogs, err = s.repo.Log.ListByUserInPeriod(gctx, p.UserID, period)
		return s.queryError("查询值班人员日志失败", err)
	})

	g.Go(func() error {
		var err error
		taggedLogs, err = s.repo.Log.ListByTagsInPeriod(gctx, filter, period, repository.LogListOptions{})
		return s.queryError("按标签查询日志失败", err)
	})

	switch p.ReportType {
	case eosreport.ECS:
		g.Go(func() error {
			var err error
			environments, err = s.repo.Environment.ListInPeriod(gctx, period, s.grace, repository.EnvironmentRelations{
				Runs: &repository.AllRunRelations,
			})
			return s.queryError("查询环境失败", err)
		})
	case eosreport.QcPdp, eosreport.ShiftLeader:
		g.Go(func() error {
			var err error
			runs, err = s.repo.Run.ListInPeriod(gctx, period, repository.AllRunRelations)
			return s.queryError("查询运行失败", err)
		})
	}

	if p.ReportType == eosreport.ShiftLeader {
		g.Go(func() error {
			var err error
			rootLogs, err = s.repo.Log.ListInPeriod(gctx, period, repository.LogListOptions{RootOnly: true})
			return s.queryError("查询班次日志失败", err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	ts := &eosreport.TypeSpecific{}
	switch p.ReportType {
	case eosreport.ECS:
		for i := range environments {
			s.prepareRuns(environments[i].Runs, p.Filter, now)
		}
		ts.Environments = environments
	case eosreport.QcPdp:
		s.prepareRuns(runs, p.Filter, now)
		ts.Runs = eosreport.GroupRunsByDefinition(runs)
	case eosreport.ShiftLeader:
		s.prepareRuns(runs, p.Filter, now)
		ts.Runs = eosreport.GroupRunsByDefinition(runs)
		ts.TagsCounters = countTags(rootLogs)
	}

	return &ShiftData{
		Shift:        p.Shift,
		User:         user,
		IssuesLogs:   mergeIssueLogs(userLogs, taggedLogs),
		TypeSpecific: ts,
	}, nil
}

func (s *shiftService) queryError(msg string, err error) error {
	if err != nil {
		s.logger.Error(msg, zap.Error(err))
	}
	return err
}

// prepareRuns 过滤运行日志并计算运行分类
func (s *shiftService) prepareRuns(runs []model.Run, filter eosreport.TagFilter, now time.Time) {
	for i := range runs {
		runs[i].Logs = filterRunLogs(runs[i].Logs, filter)
		runs[i].Definition = RunDefinition(&runs[i], now)
	}
}

// filterRunLogs 仅保留满足标签过滤的根日志
func filterRunLogs(logs []model.Log, filter eosreport.TagFilter) []model.Log {
	var kept []model.Log
	for i := range logs {
		if logs[i].IsRoot() && filter.Match(&logs[i]) {
			kept = append(kept, logs[i])
		}
	}
	return kept
}

// mergeIssueLogs 本人日志在前，按标签命中的日志去重后追加
func mergeIssueLogs(userLogs, taggedLogs []model.Log) []model.Log {
	seen := make(map[int64]bool, len(userLogs))
	merged := make([]model.Log, 0, len(userLogs)+len(taggedLogs))
	for _, log := range userLogs {
		seen[log.ID] = true
		merged = append(merged, log)
	}
	for _, log := range taggedLogs {
		if !seen[log.ID] {
			seen[log.ID] = true
			merged = append(merged, log)
		}
	}
	return merged
}

// countTags 统计非交班报告根日志上的标签次数，按次数降序，次数相同按首次出现顺序
func countTags(logs []model.Log) []eosreport.TagCounter {
	var counters []eosreport.TagCounter
	index := make(map[string]int)
	for i := range logs {
		if logs[i].HasTag(eosreport.TagEoS) {
			continue
		}
		for _, tag := range logs[i].Tags {
			j, ok := index[tag.Text]
			if !ok {
				j = len(counters)
				index[tag.Text] = j
				counters = append(counters, eosreport.TagCounter{Tag: tag.Text})
			}
			counters[j].Count++
		}
	}
	sort.SliceStable(counters, func(a, b int) bool {
		return counters[a].Count > counters[b].Count
	})
	return counters
}

// ═══════════════════════════════════════════════════════════
// GetShiftData — 当前班次数据
// ═══════════════════════════════════════════════════════════

func (s *shiftService) GetShiftData(ctx context.Context, userID string, reportType eosreport.ReportType) (*dto.ShiftDataResponse, error) {
	current := s.Current()
	period := repository.Period{From: current.Start, To: current.End}
	filter := repository.TagFilter(eosreport.TagFilterFor(reportType))

	var (
		userLogs   []model.Log
		taggedLogs []model.Log
		previous   dto.PreviousShifterInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.Get(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		userLogs, err = s.repo.Log.ListByUserInPeriod(gctx, userID, period)
		return s.queryError("查询值班人员日志失败", err)
	})
	g.Go(func() error {
		var err error
		taggedLogs, err = s.repo.Log.ListByTagsInPeriod(gctx, filter, period, repository.LogListOptions{})
		return s.queryError("按标签查询日志失败", err)
	})
	g.Go(func() error {
		var err error
		previous, err = s.PreviousShifterInfo(gctx, reportType, current)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logs := mergeIssueLogs(userLogs, taggedLogs)
	issues := make([]dto.IssueLogResponse, len(logs))
	for i := range logs {
		issues[i] = dto.NewIssueLogResponse(&logs[i])
	}

	return &dto.ShiftDataResponse{
		Shift:                   dto.NewShiftResponse(current),
		IssuesLogs:              issues,
		InfoFromPreviousShifter: previous,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// PreviousShifterInfo — 上一班次交接信息
// ═══════════════════════════════════════════════════════════
//
// 读取上一班次同类型报告的结构化字段；数据缺失不视为错误，
// 以 ErrorMessage 形式返回给前端展示

func (s *shiftService) PreviousShifterInfo(ctx context.Context, reportType eosreport.ReportType, current shift.Shift) (dto.PreviousShifterInfo, error) {
	previous := s.calc.Previous(current)

	reports, err := s.repo.EosReport.ListByShift(ctx, string(reportType), previous.Start)
	if err != nil {
		s.logger.Error("查询上一班次交班报告失败",
			zap.String("report_type", string(reportType)),
			zap.Time("shift_start", previous.Start),
			zap.Error(err),
		)
		return dto.PreviousShifterInfo{}, err
	}

	switch {
	case len(reports) == 0:
		return dto.PreviousShifterInfo{
			ErrorMessage: fmt.Sprintf("No %s EoS reports found from the previous shift", reportType),
		}, nil
	case len(reports) > 1:
		return dto.PreviousShifterInfo{
			ErrorMessage: fmt.Sprintf("Multiple %s EoS reports found from the previous shift", reportType),
		}, nil
	}

	info := reports[0].InfoForNextShifter
	if info == nil {
		return dto.PreviousShifterInfo{
			ErrorMessage: "EoS report from the previous shift is missing the information transfer field",
		}, nil
	}
	if strings.TrimSpace(*info) == "" {
		return dto.PreviousShifterInfo{
			ErrorMessage: "Previous EoS report contains no information for next shifter",
		}, nil
	}
	return dto.PreviousShifterInfo{Value: *info}, nil
}
