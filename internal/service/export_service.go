package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/model"
	"bookkeeping/internal/repository"
	"bookkeeping/internal/shift"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRuns       = errors.New("该班次内没有运行")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportShiftRuns 导出班次内的运行为 Excel，运行日志按报告类型的标签过滤
	ExportShiftRuns(ctx context.Context, reportType eosreport.ReportType, shiftStart int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	calc      *shift.Calculator
	formatter *eosreport.Formatter
	now       func() time.Time
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	calc *shift.Calculator,
	formatter *eosreport.Formatter,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		repo:      repo,
		calc:      calc,
		formatter: formatter,
		now:       time.Now,
		logger:    logger,
	}
}

var runSheetHeaders = []string{
	"Run number", "Definition", "Start", "End", "Duration", "Quality",
	"Detectors", "Detectors QC bad", "EOR reasons", "Logs",
}

// ═══════════════════════════════════════════════════════════
// ExportShiftRuns — 导出班次运行
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Runs"
//   - 第 1 行：班次标题（合并单元格）
//   - 第 2 行：表头
//   - 之后每个运行一行，时间按值班时区显示
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportShiftRuns(ctx context.Context, reportType eosreport.ReportType, shiftStart int64) (*bytes.Buffer, string, error) {
	sh := s.calc.FromTimestamp(shiftStart)

	runs, err := s.repo.Run.ListInPeriod(ctx, repository.Period{From: sh.Start, To: sh.End}, repository.AllRunRelations)
	if err != nil {
		s.logger.Error("查询班次运行失败", zap.Error(err))
		return nil, "", err
	}
	if len(runs) == 0 {
		return nil, "", ErrExportNoRuns
	}

	filter := eosreport.TagFilterFor(reportType)
	now := s.now()
	for i := range runs {
		runs[i].Logs = filterRunLogs(runs[i].Logs, filter)
		runs[i].Definition = RunDefinition(&runs[i], now)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Runs"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "F", 14)
	f.SetColWidth(sheetName, "C", "D", 22)
	f.SetColWidth(sheetName, "G", "I", 36)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := fmt.Sprintf("%s %s shift - %s", s.calc.FormatDate(sh.Start), sh.Period, reportType)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(len(runSheetHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, header := range runSheetHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), header)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(runSheetHeaders)-1), 2), headerStyle)

	// 数据行
	for i := range runs {
		row := 3 + i
		for col, value := range s.runRow(&runs[i]) {
			f.SetCellValue(sheetName, cell(colName(col), row), value)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("runs_%s_%s.xlsx",
		sh.Start.In(s.calc.Location()).Format("2006-01-02"), strings.ToLower(string(sh.Period)))
	return buf, filename, nil
}

// runRow 单个运行的行数据，顺序与 runSheetHeaders 一致
func (s *exportService) runRow(run *model.Run) []interface{} {
	var detectors, badDetectors []string
	for _, rd := range run.Detectors {
		if rd.Detector == nil {
			continue
		}
		detectors = append(detectors, rd.Detector.Name)
		if rd.Quality != nil && strings.EqualFold(*rd.Quality, model.DetectorQualityBad) {
			badDetectors = append(badDetectors, rd.Detector.Name)
		}
	}

	reasons := make([]string, len(run.EorReasons))
	for i := range run.EorReasons {
		reasons[i] = eosreport.FormatEorReason(&run.EorReasons[i])
	}

	return []interface{}{
		run.RunNumber,
		run.Definition,
		s.localTime(run.StartTime()),
		s.localTime(run.EndTime()),
		s.formatter.RunDuration(run),
		run.RunQuality,
		dashIfEmpty(strings.Join(detectors, ", ")),
		dashIfEmpty(strings.Join(badDetectors, ", ")),
		dashIfEmpty(strings.Join(reasons, "\n")),
		len(run.Logs),
	}
}

func (s *exportService) localTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(s.calc.Location()).Format("2006-01-02 15:04:05")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
