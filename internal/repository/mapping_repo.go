package repository

import (
	"context"
	"errors"

	"github.com/tenderwizard/backend/internal/model"
	"gorm.io/gorm"
)

type mappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepository{db: db}
}

// Upsert 按 (template_id, table_name) 整体替换映射内容
func (r *mappingRepository) Upsert(ctx context.Context, mapping *model.FieldMapping) error {
	var existing model.FieldMapping
	err := r.db.WithContext(ctx).
		Where("template_id = ? AND table_name = ?", mapping.TemplateID, mapping.TableName).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(mapping).Error
		}
		return err
	}

	existing.MappingData = mapping.MappingData
	existing.AIInstructions = mapping.AIInstructions
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}
	*mapping = existing
	return nil
}

func (r *mappingRepository) Get(ctx context.Context, templateID uint, tableName string) (*model.FieldMapping, error) {
	var mapping model.FieldMapping
	err := r.db.WithContext(ctx).
		Where("template_id = ? AND table_name = ?", templateID, tableName).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *mappingRepository) ListByTemplate(ctx context.Context, templateID uint) ([]model.FieldMapping, error) {
	var mappings []model.FieldMapping
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("table_name ASC").
		Find(&mappings).Error
	return mappings, err
}

func (r *mappingRepository) DeleteByTemplate(ctx context.Context, templateID uint) error {
	return r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Delete(&model.FieldMapping{}).Error
}
