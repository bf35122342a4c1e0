package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenderwizard/backend/internal/model"
	"github.com/tenderwizard/backend/internal/repository"
	"gorm.io/datatypes"
	"k8s.io/klog/v2"
)

// SaveMappingRequest 保存一张表的字段映射
type SaveMappingRequest struct {
	TemplateID     uint              `json:"template_id" binding:"required"`
	TableName      string            `json:"table_name" binding:"required"`
	MappingData    map[string]string `json:"mapping_data"`
	AIInstructions map[string]any    `json:"ai_instructions"`
}

// MappingResponse 映射读取结果，未配置时返回空映射而不是 404
type MappingResponse struct {
	TemplateID     uint              `json:"template_id"`
	TableName      string            `json:"table_name"`
	MappingData    map[string]string `json:"mapping_data"`
	AIInstructions map[string]any    `json:"ai_instructions"`
}

// MappingService 字段映射管理
type MappingService interface {
	Save(ctx context.Context, req *SaveMappingRequest) (*MappingResponse, error)
	Get(ctx context.Context, templateID uint, tableName string) (*MappingResponse, error)
	StandardFields() []model.StandardField
}

type mappingService struct {
	mappings  repository.MappingRepository
	templates repository.TemplateRepository
}

func NewMappingService(mappings repository.MappingRepository, templates repository.TemplateRepository) MappingService {
	return &mappingService{mappings: mappings, templates: templates}
}

// Save 整体替换保存。向导的两张表（人员、项目）各自独立调用一次，
// 两次保存之间没有跨表事务。
func (s *mappingService) Save(ctx context.Context, req *SaveMappingRequest) (*MappingResponse, error) {
	if _, err := s.templates.Get(ctx, req.TemplateID); err != nil {
		return nil, err
	}

	mappingJSON, err := json.Marshal(orEmptyMap(req.MappingData))
	if err != nil {
		return nil, fmt.Errorf("序列化 mapping_data 失败: %w", err)
	}
	instrJSON, err := json.Marshal(orEmptyAnyMap(req.AIInstructions))
	if err != nil {
		return nil, fmt.Errorf("序列化 ai_instructions 失败: %w", err)
	}

	mapping := &model.FieldMapping{
		TemplateID:     req.TemplateID,
		TableName:      req.TableName,
		MappingData:    datatypes.JSON(mappingJSON),
		AIInstructions: datatypes.JSON(instrJSON),
	}
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	klog.V(6).Infof("映射保存成功: template=%d, table=%s, 字段 %d 个", req.TemplateID, req.TableName, len(req.MappingData))
	return toMappingResponse(mapping), nil
}

func (s *mappingService) Get(ctx context.Context, templateID uint, tableName string) (*MappingResponse, error) {
	mapping, err := s.mappings.Get(ctx, templateID, tableName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &MappingResponse{
				TemplateID:     templateID,
				TableName:      tableName,
				MappingData:    map[string]string{},
				AIInstructions: map[string]any{},
			}, nil
		}
		return nil, err
	}
	return toMappingResponse(mapping), nil
}

func (s *mappingService) StandardFields() []model.StandardField {
	return model.StandardResumeFields
}

func toMappingResponse(mapping *model.FieldMapping) *MappingResponse {
	resp := &MappingResponse{
		TemplateID:     mapping.TemplateID,
		TableName:      mapping.TableName,
		MappingData:    map[string]string{},
		AIInstructions: map[string]any{},
	}
	if len(mapping.MappingData) > 0 {
		json.Unmarshal(mapping.MappingData, &resp.MappingData)
	}
	if len(mapping.AIInstructions) > 0 {
		json.Unmarshal(mapping.AIInstructions, &resp.AIInstructions)
	}
	return resp
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
