package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tenderwizard/backend/internal/model"
	"github.com/tenderwizard/backend/internal/pkg/docx"
	"github.com/tenderwizard/backend/internal/repository"
	"k8s.io/klog/v2"
)

// ErrInvalidFile 上传文件类型不符
var ErrInvalidFile = errors.New("invalid file type")

// ParseResult 模板占位符解析结果
type ParseResult struct {
	TemplateID            uint     `json:"template_id,omitempty"`
	Filename              string   `json:"filename,omitempty"`
	SingletonPlaceholders []string `json:"singleton_placeholders"`
	LoopPlaceholders      []string `json:"loop_placeholders"`
}

// TemplateService 模板生命周期管理
type TemplateService interface {
	Upload(ctx context.Context, name, filename string, content []byte) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Get(ctx context.Context, id uint) (*model.Template, error)
	Delete(ctx context.Context, id uint) error
	Rename(ctx context.Context, id uint, name string) (*model.Template, error)
	// Copy 复制模板及其全部字段映射
	Copy(ctx context.Context, id uint, name string) (*model.Template, error)
	// Parse 解析已保存模板的占位符
	Parse(ctx context.Context, id uint) (*ParseResult, error)
	// ParseBytes 解析上传文件的占位符，不落库（向导第一步预览）
	ParseBytes(content []byte) (*ParseResult, error)
	ListMappings(ctx context.Context, id uint) ([]model.FieldMapping, error)
}

type templateService struct {
	templates repository.TemplateRepository
	mappings  repository.MappingRepository
}

func NewTemplateService(templates repository.TemplateRepository, mappings repository.MappingRepository) TemplateService {
	return &templateService{templates: templates, mappings: mappings}
}

func (s *templateService) Upload(ctx context.Context, name, filename string, content []byte) (*model.Template, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		return nil, fmt.Errorf("%w: 请上传 .docx 文件", ErrInvalidFile)
	}
	if name == "" {
		name = filename
	}

	tpl := &model.Template{Name: name, Filename: filename, FileContent: content}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}
	klog.V(6).Infof("模板上传成功: id=%d, name=%s, size=%d", tpl.ID, tpl.Name, len(content))
	return tpl, nil
}

func (s *templateService) List(ctx context.Context) ([]model.Template, error) {
	return s.templates.List(ctx)
}

func (s *templateService) Get(ctx context.Context, id uint) (*model.Template, error) {
	return s.templates.Get(ctx, id)
}

func (s *templateService) Delete(ctx context.Context, id uint) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	// 映射随模板一起清理
	return s.mappings.DeleteByTemplate(ctx, id)
}

func (s *templateService) Rename(ctx context.Context, id uint, name string) (*model.Template, error) {
	tpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = name
	if err := s.templates.Save(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Copy 复制模板及其字段映射
func (s *templateService) Copy(ctx context.Context, id uint, name string) (*model.Template, error) {
	src, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Name + " (副本)"
	}

	dup := &model.Template{
		Name:        name,
		Filename:    src.Filename,
		FileContent: append([]byte(nil), src.FileContent...),
	}
	if err := s.templates.Create(ctx, dup); err != nil {
		return nil, err
	}

	srcMappings, err := s.mappings.ListByTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range srcMappings {
		copied := &model.FieldMapping{
			TemplateID:     dup.ID,
			TableName:      m.TableName,
			MappingData:    append([]byte(nil), m.MappingData...),
			AIInstructions: append([]byte(nil), m.AIInstructions...),
		}
		if err := s.mappings.Upsert(ctx, copied); err != nil {
			return nil, err
		}
	}
	klog.V(6).Infof("模板复制成功: %d -> %d, 映射 %d 条", id, dup.ID, len(srcMappings))
	return dup, nil
}

func (s *templateService) Parse(ctx context.Context, id uint) (*ParseResult, error) {
	tpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.ParseBytes(tpl.FileContent)
	if err != nil {
		return nil, err
	}
	result.TemplateID = tpl.ID
	result.Filename = tpl.Filename
	return result, nil
}

func (s *templateService) ParseBytes(content []byte) (*ParseResult, error) {
	tpl, err := docx.Open(content)
	if err != nil {
		return nil, err
	}
	singletons, loops := tpl.Placeholders()
	return &ParseResult{
		SingletonPlaceholders: singletons,
		LoopPlaceholders:      loops,
	}, nil
}

func (s *templateService) ListMappings(ctx context.Context, id uint) ([]model.FieldMapping, error) {
	if _, err := s.templates.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.mappings.ListByTemplate(ctx, id)
}
