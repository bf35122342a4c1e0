package repository

import (
	"context"
	"errors"

	"github.com/tenderwizard/backend/internal/model"
	"gorm.io/gorm"
)

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.Template) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// List 列表不携带文件内容，避免每次都把 docx 拖出来
func (r *templateRepository) List(ctx context.Context) ([]model.Template, error) {
	var templates []model.Template
	err := r.db.WithContext(ctx).
		Omit("file_content").
		Order("id ASC").
		Find(&templates).Error
	return templates, err
}

func (r *templateRepository) Get(ctx context.Context, id uint) (*model.Template, error) {
	var tpl model.Template
	err := r.db.WithContext(ctx).First(&tpl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) Save(ctx context.Context, tpl *model.Template) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

func (r *templateRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Template{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
