package repository

import (
	"context"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
)

// LogListOptions 日志列表查询选项
type LogListOptions struct {
	// RootOnly 仅返回根日志（不含回复）
	RootOnly bool
}

// LogRepository 日志数据访问接口
type LogRepository interface {
	// Create 创建日志并关联标签与运行
	Create(ctx context.Context, log *model.Log, tags []model.Tag, runs []model.Run) error
	GetByID(ctx context.Context, id int64) (*model.Log, error)
	// ListByUserInPeriod 返回用户在时间窗口内创建的日志（含回复），预加载标签
	ListByUserInPeriod(ctx context.Context, userID string, period Period) ([]model.Log, error)
	// ListByTagsInPeriod 返回时间窗口内满足标签过滤条件的日志，预加载标签
	ListByTagsInPeriod(ctx context.Context, filter TagFilter, period Period, opts LogListOptions) ([]model.Log, error)
	// ListInPeriod 返回时间窗口内的全部日志，预加载标签
	ListInPeriod(ctx context.Context, period Period, opts LogListOptions) ([]model.Log, error)
}

type logRepo struct {
	db *gorm.DB
}

// NewLogRepo 创建 LogRepository 实例
func NewLogRepo(db *gorm.DB) LogRepository {
	return &logRepo{db: db}
}

func (r *logRepo) Create(ctx context.Context, log *model.Log, tags []model.Tag, runs []model.Run) error {
	log.Tags = tags
	log.Runs = runs
	// 标签与运行均为已存在记录，只写关联表
	return r.db.WithContext(ctx).
		Omit("Tags.*", "Runs.*").
		Create(log).Error
}

func (r *logRepo) GetByID(ctx context.Context, id int64) (*model.Log, error) {
	var log model.Log
	err := r.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Preload("Runs").
		Where("id = ?", id).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *logRepo) ListByUserInPeriod(ctx context.Context, userID string, period Period) ([]model.Log, error) {
	var logs []model.Log
	err := r.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("user_id = ?", userID).
		Where("created_at >= ? AND created_at < ?", period.From, period.To).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *logRepo) ListByTagsInPeriod(ctx context.Context, filter TagFilter, period Period, opts LogListOptions) ([]model.Log, error) {
	if len(filter.Include) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("created_at >= ? AND created_at < ?", period.From, period.To).
		Where("id IN (?)", r.logsWithTags(filter.Include))
	if len(filter.Exclude) > 0 {
		q = q.Where("id NOT IN (?)", r.logsWithTags(filter.Exclude))
	}
	if opts.RootOnly {
		q = q.Where("parent_log_id IS NULL")
	}

	var logs []model.Log
	err := q.Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}

func (r *logRepo) ListInPeriod(ctx context.Context, period Period, opts LogListOptions) ([]model.Log, error) {
	q := r.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("created_at >= ? AND created_at < ?", period.From, period.To)
	if opts.RootOnly {
		q = q.Where("parent_log_id IS NULL")
	}

	var logs []model.Log
	err := q.Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}

// logsWithTags 带有任一标签的日志 ID 子查询
func (r *logRepo) logsWithTags(texts []string) *gorm.DB {
	return r.db.Table("log_tags").
		Select("log_tags.log_id").
		Joins("JOIN tags ON tags.id = log_tags.tag_id").
		Where("tags.text IN ?", texts)
}

func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.id ASC")
}
