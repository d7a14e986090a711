package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
)

// EnvironmentRelations 环境查询需要预加载的关联
type EnvironmentRelations struct {
	// Runs 非 nil 时预加载环境的运行及其关联
	Runs    *RunRelations
	History bool
}

// EnvironmentRepository 环境数据访问接口
type EnvironmentRepository interface {
	// ListInPeriod 返回生命周期与时间窗口有交集的环境：
	// 创建于窗口结束前，且在窗口开始后有更新，
	// 或者没有 DESTROYED/ERROR 历史且在窗口开始前 grace 内有更新
	ListInPeriod(ctx context.Context, period Period, grace time.Duration, rel EnvironmentRelations) ([]model.Environment, error)
}

type environmentRepo struct {
	db *gorm.DB
}

// NewEnvironmentRepo 创建 EnvironmentRepository 实例
func NewEnvironmentRepo(db *gorm.DB) EnvironmentRepository {
	return &environmentRepo{db: db}
}

func (r *environmentRepo) ListInPeriod(ctx context.Context, period Period, grace time.Duration, rel EnvironmentRelations) ([]model.Environment, error) {
	q := r.db.WithContext(ctx)
	if rel.Runs != nil {
		q = q.Preload("Runs", func(db *gorm.DB) *gorm.DB {
			return db.Order(runStartExpr + " ASC").Order("runs.run_number ASC")
		})
		q = rel.Runs.preload(q, "Runs.")
	}
	if rel.History {
		q = q.Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("environment_history_items.created_at ASC, environment_history_items.id ASC")
		})
	}

	terminated := r.db.Table("environment_history_items").
		Select("environment_history_items.environment_id").
		Where("environment_history_items.status IN ?", []string{model.EnvironmentStatusDestroyed, model.EnvironmentStatusError})

	var envs []model.Environment
	err := q.
		Where("environments.created_at < ?", period.To).
		Where(
			r.db.Where("environments.updated_at >= ?", period.From).
				Or(r.db.Where("environments.id NOT IN (?)", terminated).
					Where("environments.updated_at >= ?", period.From.Add(-grace))),
		).
		Order("environments.created_at ASC, environments.id ASC").
		Find(&envs).Error
	if err != nil {
		return nil, err
	}
	for i := range envs {
		sortRunDetectors(envs[i].Runs)
	}
	return envs, nil
}
