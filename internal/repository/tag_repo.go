package repository

import (
	"context"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
)

// TagRepository 标签数据访问接口
type TagRepository interface {
	// ListByTexts 返回已存在的标签，不存在的文本被忽略
	ListByTexts(ctx context.Context, texts []string) ([]model.Tag, error)
}

type tagRepo struct {
	db *gorm.DB
}

// NewTagRepo 创建 TagRepository 实例
func NewTagRepo(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) ListByTexts(ctx context.Context, texts []string) ([]model.Tag, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	err := r.db.WithContext(ctx).
		Where("text IN ?", texts).
		Order("id ASC").
		Find(&tags).Error
	return tags, err
}
