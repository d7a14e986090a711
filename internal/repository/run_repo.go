package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
)

// RunRelations 运行查询需要预加载的关联
type RunRelations struct {
	LhcFill    bool
	EorReasons bool
	Logs       bool
	Detectors  bool
	RunType    bool
}

// AllRunRelations 交班报告使用的全部关联
var AllRunRelations = RunRelations{LhcFill: true, EorReasons: true, Logs: true, Detectors: true, RunType: true}

// preload 将关联选项应用到查询；prefix 为嵌套预加载的路径前缀（如 "Runs."）
func (rel RunRelations) preload(q *gorm.DB, prefix string) *gorm.DB {
	if rel.LhcFill {
		q = q.Preload(prefix + "LhcFill")
	}
	if rel.EorReasons {
		q = q.Preload(prefix+"EorReasons", func(db *gorm.DB) *gorm.DB {
			return db.Order("eor_reasons.id ASC")
		}).Preload(prefix + "EorReasons.ReasonType")
	}
	if rel.Logs {
		q = q.Preload(prefix+"Logs", func(db *gorm.DB) *gorm.DB {
			return db.Order("logs.created_at ASC, logs.id ASC")
		}).Preload(prefix+"Logs.Tags", orderTags)
	}
	if rel.Detectors {
		q = q.Preload(prefix + "Detectors").Preload(prefix + "Detectors.Detector")
	}
	if rel.RunType {
		q = q.Preload(prefix + "RunType")
	}
	return q
}

// RunRepository 运行数据访问接口
type RunRepository interface {
	// ListInPeriod 返回与时间窗口有交集的运行，按开始时间排序
	ListInPeriod(ctx context.Context, period Period, rel RunRelations) ([]model.Run, error)
	ListByRunNumbers(ctx context.Context, runNumbers []int64) ([]model.Run, error)
}

type runRepo struct {
	db *gorm.DB
}

// NewRunRepo 创建 RunRepository 实例
func NewRunRepo(db *gorm.DB) RunRepository {
	return &runRepo{db: db}
}

const (
	runStartExpr = "COALESCE(runs.time_trg_start, runs.time_o2_start)"
	runEndExpr   = "COALESCE(runs.time_trg_end, runs.time_o2_end)"
)

func (r *runRepo) ListInPeriod(ctx context.Context, period Period, rel RunRelations) ([]model.Run, error) {
	q := rel.preload(r.db.WithContext(ctx), "")

	var runs []model.Run
	err := q.
		Where(runStartExpr+" < ?", period.To).
		Where("("+runEndExpr+" IS NULL OR "+runEndExpr+" >= ?)", period.From).
		Order(runStartExpr + " ASC").
		Order("runs.run_number ASC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	sortRunDetectors(runs)
	return runs, nil
}

// sortRunDetectors 探测器按名称排序
func sortRunDetectors(runs []model.Run) {
	for i := range runs {
		sort.SliceStable(runs[i].Detectors, func(a, b int) bool {
			return detectorName(runs[i].Detectors[a]) < detectorName(runs[i].Detectors[b])
		})
	}
}

func detectorName(rd model.RunDetector) string {
	if rd.Detector == nil {
		return ""
	}
	return rd.Detector.Name
}

func (r *runRepo) ListByRunNumbers(ctx context.Context, runNumbers []int64) ([]model.Run, error) {
	if len(runNumbers) == 0 {
		return nil, nil
	}
	var runs []model.Run
	err := r.db.WithContext(ctx).
		Where("run_number IN ?", runNumbers).
		Order("run_number ASC").
		Find(&runs).Error
	return runs, err
}
