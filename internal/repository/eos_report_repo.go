package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
)

// EosReportRepository 交班报告元数据访问接口
type EosReportRepository interface {
	Create(ctx context.Context, report *model.EosReport) error
	// ListByShift 返回指定类型、指定班次起点的报告
	ListByShift(ctx context.Context, reportType string, shiftStart time.Time) ([]model.EosReport, error)
}

type eosReportRepo struct {
	db *gorm.DB
}

// NewEosReportRepo 创建 EosReportRepository 实例
func NewEosReportRepo(db *gorm.DB) EosReportRepository {
	return &eosReportRepo{db: db}
}

func (r *eosReportRepo) Create(ctx context.Context, report *model.EosReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *eosReportRepo) ListByShift(ctx context.Context, reportType string, shiftStart time.Time) ([]model.EosReport, error) {
	var reports []model.EosReport
	err := r.db.WithContext(ctx).
		Where("report_type = ? AND shift_start = ?", reportType, shiftStart).
		Order("created_at ASC, id ASC").
		Find(&reports).Error
	return reports, err
}
