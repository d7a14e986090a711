package service

import (
	"bytes"
	"context"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"bookkeeping/internal/dto"
	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/model"
	"bookkeeping/internal/repository"
	"bookkeeping/internal/shift"
)

// EosReportService 交班报告业务接口
type EosReportService interface {
	// Create 生成交班报告并保存为日志，同时写入结构化元数据
	Create(ctx context.Context, userID string, reportType eosreport.ReportType, req *dto.CreateEosReportRequest) (*dto.EosReportResponse, error)
	// Preview 生成交班报告但不保存，返回 Markdown 与 HTML
	Preview(ctx context.Context, userID string, reportType eosreport.ReportType, req *dto.CreateEosReportRequest) (*dto.EosReportPreviewResponse, error)
}

type eosReportService struct {
	repo      *repository.Repository
	shifts    ShiftService
	calc      *shift.Calculator
	formatter *eosreport.Formatter
	markdown  goldmark.Markdown
	logger    *zap.Logger
}

// NewEosReportService 创建 EosReportService 实例
func NewEosReportService(
	repo *repository.Repository,
	shifts ShiftService,
	calc *shift.Calculator,
	formatter *eosreport.Formatter,
	logger *zap.Logger,
) EosReportService {
	return &eosReportService{
		repo:      repo,
		shifts:    shifts,
		calc:      calc,
		formatter: formatter,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Create — 创建交班报告
// ═══════════════════════════════════════════════════════════
//
// 流程：
//  1. 聚合班次数据并渲染 Markdown，标题取第一行
//  2. 报告标签与标签字典取交集，不存在的标签忽略
//  3. 同一事务内写入日志（关联标签、运行）与 eos_reports 元数据

func (s *eosReportService) Create(ctx context.Context, userID string, reportType eosreport.ReportType, req *dto.CreateEosReportRequest) (*dto.EosReportResponse, error) {
	report, err := s.buildReport(ctx, userID, reportType, req)
	if err != nil {
		return nil, err
	}

	text := s.formatter.Compose(report)
	title := eosreport.TitleFromMarkdown(text)

	tags, err := s.repo.Tag.ListByTexts(ctx, eosreport.ReportTags(reportType))
	if err != nil {
		s.logger.Error("查询报告标签失败", zap.Error(err))
		return nil, err
	}

	runs, err := s.repo.Run.ListByRunNumbers(ctx, uniqueRunNumbers(report.TypeSpecific.RunNumbers()))
	if err != nil {
		s.logger.Error("查询报告关联运行失败", zap.Error(err))
		return nil, err
	}

	log := &model.Log{
		Title:   title,
		Text:    text,
		Subtype: model.LogSubtypeComment,
		Origin:  model.LogOriginProcess,
		UserID:  &userID,
	}
	info := req.InfoForNextShifter

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Log.Create(ctx, log, tags, runs); err != nil {
			return err
		}
		return tx.EosReport.Create(ctx, &model.EosReport{
			LogID:              log.ID,
			ReportType:         string(reportType),
			ShiftStart:         report.Shift.Start,
			ShiftEnd:           report.Shift.End,
			ShiftPeriod:        string(report.Shift.Period),
			InfoForNextShifter: &info,
		})
	})
	if err != nil {
		s.logger.Error("保存交班报告失败",
			zap.String("report_type", string(reportType)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("交班报告已创建",
		zap.Int64("log_id", log.ID),
		zap.String("report_type", string(reportType)),
		zap.Time("shift_start", report.Shift.Start),
	)

	tagTexts := make([]string, len(tags))
	for i, tag := range tags {
		tagTexts[i] = tag.Text
	}
	runNumbers := make([]int64, len(runs))
	for i, run := range runs {
		runNumbers[i] = run.RunNumber
	}

	return &dto.EosReportResponse{
		ID:    log.ID,
		Title: title,
		Text:  text,
		Tags:  tagTexts,
		Runs:  runNumbers,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// Preview — 预览交班报告
// ═══════════════════════════════════════════════════════════

func (s *eosReportService) Preview(ctx context.Context, userID string, reportType eosreport.ReportType, req *dto.CreateEosReportRequest) (*dto.EosReportPreviewResponse, error) {
	report, err := s.buildReport(ctx, userID, reportType, req)
	if err != nil {
		return nil, err
	}

	text := s.formatter.Compose(report)

	var html bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &html); err != nil {
		s.logger.Error("渲染报告 HTML 失败", zap.Error(err))
		return nil, err
	}

	return &dto.EosReportPreviewResponse{
		Title:    eosreport.TitleFromMarkdown(text),
		Markdown: text,
		HTML:     html.String(),
	}, nil
}

// buildReport 校验请求、聚合班次数据并合并值班人员填写的内容
func (s *eosReportService) buildReport(ctx context.Context, userID string, reportType eosreport.ReportType, req *dto.CreateEosReportRequest) (*eosreport.Report, error) {
	if err := req.Validate(reportType); err != nil {
		return nil, err
	}

	sh := s.calc.FromTimestamp(req.ShiftStart)
	data, err := s.shifts.Aggregate(ctx, AggregateParams{
		Shift:      sh,
		ReportType: reportType,
		UserID:     userID,
		Filter:     eosreport.TagFilterFor(reportType),
	})
	if err != nil {
		return nil, err
	}

	ts, err := mergeTypeSpecific(reportType, data.TypeSpecific, req.TypeSpecific)
	if err != nil {
		return nil, err
	}

	return &eosreport.Report{
		Type:                    reportType,
		Shift:                   sh,
		ShifterName:             data.User.Name,
		TraineeName:             req.TraineeName,
		IssuesLogs:              data.IssuesLogs,
		LhcTransitions:          req.LhcTransitions,
		ShiftFlow:               req.ShiftFlow,
		InfoFromPreviousShifter: req.InfoFromPreviousShifter,
		InfoForNextShifter:      req.InfoForNextShifter,
		InfoForRmRc:             req.InfoForRmRc,
		TypeSpecific:            ts,
	}, nil
}

// mergeTypeSpecific 将请求中的专属数据合并到聚合结果，只取报告类型使用的字段
func mergeTypeSpecific(reportType eosreport.ReportType, aggregated *eosreport.TypeSpecific, req *dto.TypeSpecificRequest) (*eosreport.TypeSpecific, error) {
	if reportType == eosreport.Slimos {
		return nil, nil
	}
	ts := aggregated
	if ts == nil {
		ts = &eosreport.TypeSpecific{}
	}
	if req == nil {
		return ts, nil
	}

	switch reportType {
	case eosreport.ECS, eosreport.QcPdp:
		runComments, err := req.ParseRunComments()
		if err != nil {
			return nil, err
		}
		ts.RunComments = runComments
		if reportType == eosreport.ECS {
			ts.EnvironmentComments = req.EnvironmentComments
		}
	case eosreport.ShiftLeader:
		ts.Magnets = req.Magnets
	case eosreport.DCS:
		ts.Alerts = req.Alerts
	}
	return ts, nil
}

func uniqueRunNumbers(numbers []int64) []int64 {
	seen := make(map[int64]bool, len(numbers))
	unique := make([]int64, 0, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}
