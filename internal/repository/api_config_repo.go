package repository

import (
	"context"
	"errors"

	"github.com/tenderwizard/backend/internal/model"
	"gorm.io/gorm"
)

type apiConfigRepository struct {
	db *gorm.DB
}

func NewAPIConfigRepository(db *gorm.DB) APIConfigRepository {
	return &apiConfigRepository{db: db}
}

func (r *apiConfigRepository) Create(ctx context.Context, cfg *model.APIConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *apiConfigRepository) Update(ctx context.Context, cfg *model.APIConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *apiConfigRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.APIConfig{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *apiConfigRepository) Get(ctx context.Context, id uint) (*model.APIConfig, error) {
	var cfg model.APIConfig
	err := r.db.WithContext(ctx).First(&cfg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *apiConfigRepository) List(ctx context.Context) ([]model.APIConfig, error) {
	var configs []model.APIConfig
	err := r.db.WithContext(ctx).Order("id ASC").Find(&configs).Error
	return configs, err
}

func (r *apiConfigRepository) GetActive(ctx context.Context) (*model.APIConfig, error) {
	var cfg model.APIConfig
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// Activate 启用指定配置并停用其余配置，两步在同一事务内完成
func (r *apiConfigRepository) Activate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg model.APIConfig
		if err := tx.First(&cfg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&model.APIConfig{}).
			Where("id <> ?", id).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.APIConfig{}).
			Where("id = ?", id).
			Update("active", true).Error
	})
}
