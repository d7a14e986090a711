package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Period 查询时间窗口 [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// TagFilter 日志标签过滤：至少带一个 Include 标签且不带任何 Exclude 标签
type TagFilter struct {
	Include []string
	Exclude []string
}

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Tag         TagRepository
	Log         LogRepository
	Run         RunRepository
	Environment EnvironmentRepository
	EosReport   EosReportRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Tag:         NewTagRepo(db),
		Log:         NewLogRepo(db),
		Run:         NewRunRepo(db),
		Environment: NewEnvironmentRepo(db),
		EosReport:   NewEosReportRepo(db),
		db:          db,
	}
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
// 未绑定数据库（如单元测试中手工组装）时直接在当前 Repository 上执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
