package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tenderwizard/backend/config"
	"github.com/tenderwizard/backend/internal/pkg/docx"
	"github.com/tenderwizard/backend/internal/pkg/llm"
	"github.com/tenderwizard/backend/internal/repository"
	"k8s.io/klog/v2"
)

// AssembleRequest 向导最后一步的上下文组装请求
type AssembleRequest struct {
	TemplateID   uint     `json:"template_id" binding:"required"`
	PersonTable  string   `json:"person_table" binding:"required"`
	PersonID     string   `json:"person_id" binding:"required"`
	ProjectTable string   `json:"project_table"`
	ProjectIDs   []string `json:"project_ids"`
}

// GapReport 缺失字段检测结果
type GapReport struct {
	// MissingKeys 顶层缺失键，直接作为 AI 补全的目标字段
	MissingKeys []string `json:"missing_keys"`
	// Details 面向界面展示的缺失说明
	Details []string `json:"details"`
}

// FillContextRequest 对已组装上下文做 AI 补全
type FillContextRequest struct {
	Context           map[string]any               `json:"context" binding:"required"`
	TargetFields      []string                     `json:"target_fields" binding:"required"`
	UserPrompt        string                       `json:"user_prompt"`
	FieldInstructions map[string]map[string]string `json:"field_instructions"`
	ModelName         string                       `json:"model_name"`
}

// GenerateRequest 直接从某行原始数据生成字段
type GenerateRequest struct {
	TableName    string   `json:"table_name" binding:"required"`
	RecordID     string   `json:"record_id" binding:"required"`
	TargetFields []string `json:"target_fields" binding:"required"`
	UserPrompt   string   `json:"user_prompt"`
	ModelName    string   `json:"model_name"`
}

// GenerateResumeRequest 组装加渲染一步到位
type GenerateResumeRequest struct {
	AssembleRequest
	Extra map[string]any `json:"extra"` // 追加或覆盖到组装结果的字段
}

// WizardService 简历生成向导的核心流程
type WizardService interface {
	AssembleContext(ctx context.Context, req *AssembleRequest) (map[string]any, error)
	DetectGaps(resumeCtx map[string]any, singletons, loops []string) *GapReport
	FillContext(ctx context.Context, req *FillContextRequest) (map[string]any, error)
	GenerateFromRecord(ctx context.Context, req *GenerateRequest) (map[string]any, error)
	// RenderFromContext 返回生成文件名与 docx 字节流
	RenderFromContext(ctx context.Context, templateID uint, resumeCtx map[string]any) (string, []byte, error)
	GenerateResume(ctx context.Context, req *GenerateResumeRequest) (string, []byte, error)
}

type wizardService struct {
	tables    repository.DataTableRepository
	mappings  repository.MappingRepository
	templates repository.TemplateRepository
	configs   repository.APIConfigRepository
	cfg       *config.Config
}

func NewWizardService(
	tables repository.DataTableRepository,
	mappings repository.MappingRepository,
	templates repository.TemplateRepository,
	configs repository.APIConfigRepository,
	cfg *config.Config,
) WizardService {
	return &wizardService{
		tables:    tables,
		mappings:  mappings,
		templates: templates,
		configs:   configs,
		cfg:       cfg,
	}
}

// AssembleContext 取出人员行和项目行，按字段映射改名合并成渲染上下文。
// 人员映射只贡献非 p. 占位符，项目映射只贡献 p. 占位符（存入条目时去掉前缀）；
// 映射指向的列不存在时取空串，未映射的列不进入上下文。
func (s *wizardService) AssembleContext(ctx context.Context, req *AssembleRequest) (map[string]any, error) {
	personMapping, err := s.loadMapping(ctx, req.TemplateID, req.PersonTable)
	if err != nil {
		return nil, err
	}

	personRow, err := s.fetchRow(ctx, req.PersonTable, req.PersonID)
	if err != nil {
		return nil, err
	}

	resumeCtx := make(map[string]any)
	for placeholder, column := range personMapping {
		if strings.HasPrefix(placeholder, docx.LoopPrefix) {
			continue
		}
		resumeCtx[placeholder] = valueToString(personRow[column])
	}

	projects := make([]map[string]any, 0, len(req.ProjectIDs))
	if req.ProjectTable != "" && len(req.ProjectIDs) > 0 {
		projectMapping, err := s.loadMapping(ctx, req.TemplateID, req.ProjectTable)
		if err != nil {
			return nil, err
		}
		for _, projectID := range req.ProjectIDs {
			row, err := s.fetchRow(ctx, req.ProjectTable, projectID)
			if err != nil {
				return nil, err
			}
			entry := make(map[string]any)
			for placeholder, column := range projectMapping {
				field, ok := strings.CutPrefix(placeholder, docx.LoopPrefix)
				if !ok {
					continue
				}
				entry[field] = valueToString(row[column])
			}
			projects = append(projects, entry)
		}
	}
	resumeCtx["projects"] = projects

	klog.V(6).Infof("上下文组装完成: person=%s/%s, projects=%d", req.PersonTable, req.PersonID, len(projects))
	return resumeCtx, nil
}

// DetectGaps 对照模板占位符找出缺失字段。
// 单值占位符缺失即对应上下文值去空白后为空；循环占位符按去掉 p. 前缀后的
// 字段名逐个项目条目检查，任何条目缺字段就整体把 projects 标记为缺失。
// 项目列表为空时不做循环字段检查，没有条目就没有可补的缺口。
func (s *wizardService) DetectGaps(resumeCtx map[string]any, singletons, loops []string) *GapReport {
	report := &GapReport{MissingKeys: []string{}, Details: []string{}}

	for _, name := range singletons {
		if name == "projects" {
			continue
		}
		if isBlank(resumeCtx[name]) {
			report.MissingKeys = append(report.MissingKeys, name)
			report.Details = append(report.Details, fmt.Sprintf("字段 %s 为空", name))
		}
	}

	projects := projectEntries(resumeCtx["projects"])
	if len(projects) == 0 || len(loops) == 0 {
		return report
	}

	missingCounts := make(map[string]int)
	for _, name := range loops {
		field := strings.TrimPrefix(name, docx.LoopPrefix)
		for _, entry := range projects {
			if isBlank(entry[field]) {
				missingCounts[field]++
			}
		}
	}
	if len(missingCounts) == 0 {
		return report
	}

	report.MissingKeys = append(report.MissingKeys, "projects")
	fields := make([]string, 0, len(missingCounts))
	for field := range missingCounts {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		report.Details = append(report.Details,
			fmt.Sprintf("项目字段 %s 在 %d 个项目条目中为空", field, missingCounts[field]))
	}
	return report
}

func (s *wizardService) FillContext(ctx context.Context, req *FillContextRequest) (map[string]any, error) {
	client, err := s.newLLMClient(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	return client.Complete(ctx, llm.CompletionRequest{
		Context:           req.Context,
		TargetFields:      req.TargetFields,
		UserPrompt:        req.UserPrompt,
		FieldInstructions: req.FieldInstructions,
	})
}

func (s *wizardService) GenerateFromRecord(ctx context.Context, req *GenerateRequest) (map[string]any, error) {
	pk, err := s.tables.PrimaryKey(ctx, req.TableName)
	if err != nil {
		return nil, err
	}
	if pk == "" {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoPrimaryKey, req.TableName)
	}
	row, err := s.tables.GetRow(ctx, req.TableName, pk, req.RecordID)
	if err != nil {
		return nil, err
	}

	client, err := s.newLLMClient(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	return client.Complete(ctx, llm.CompletionRequest{
		Context:      row,
		TargetFields: req.TargetFields,
		UserPrompt:   req.UserPrompt,
	})
}

func (s *wizardService) RenderFromContext(ctx context.Context, templateID uint, resumeCtx map[string]any) (string, []byte, error) {
	template, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return "", nil, err
	}
	doc, err := docx.Open(template.FileContent)
	if err != nil {
		return "", nil, err
	}
	rendered, err := doc.Render(resumeCtx)
	if err != nil {
		return "", nil, err
	}

	base := strings.TrimSuffix(template.Filename, ".docx")
	filename := base + "_generated.docx"
	klog.V(6).Infof("简历渲染完成: template=%d, file=%s, bytes=%d", templateID, filename, len(rendered))
	return filename, rendered, nil
}

func (s *wizardService) GenerateResume(ctx context.Context, req *GenerateResumeRequest) (string, []byte, error) {
	resumeCtx, err := s.AssembleContext(ctx, &req.AssembleRequest)
	if err != nil {
		return "", nil, err
	}
	for k, v := range req.Extra {
		resumeCtx[k] = v
	}
	return s.RenderFromContext(ctx, req.TemplateID, resumeCtx)
}

// newLLMClient 优先用数据库中启用的 API 配置，没有则退回配置文件兜底
func (s *wizardService) newLLMClient(ctx context.Context, modelOverride string) (*llm.Client, error) {
	cfg := llm.Config{
		BaseURL: s.cfg.LLM.BaseURL,
		APIKey:  s.cfg.LLM.APIKey,
		Model:   s.cfg.LLM.Model,
	}
	active, err := s.configs.GetActive(ctx)
	switch {
	case err == nil:
		cfg = llm.Config{
			Provider: active.Provider,
			BaseURL:  active.BaseURL,
			APIKey:   active.APIKey,
			Model:    active.Model,
		}
	case !errors.Is(err, repository.ErrNotFound):
		// 没有启用配置才退回文件兜底，数据库故障要如实上报
		return nil, err
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}
	return llm.NewClient(cfg)
}

func (s *wizardService) loadMapping(ctx context.Context, templateID uint, tableName string) (map[string]string, error) {
	mapping, err := s.mappings.Get(ctx, templateID, tableName)
	if err != nil {
		return nil, fmt.Errorf("表 %s 缺少字段映射: %w", tableName, err)
	}
	result := map[string]string{}
	if len(mapping.MappingData) > 0 {
		if err := json.Unmarshal(mapping.MappingData, &result); err != nil {
			return nil, fmt.Errorf("字段映射数据损坏: %w", err)
		}
	}
	return result, nil
}

func (s *wizardService) fetchRow(ctx context.Context, tableName, id string) (map[string]any, error) {
	pk, err := s.tables.PrimaryKey(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if pk == "" {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoPrimaryKey, tableName)
	}
	return s.tables.GetRow(ctx, tableName, pk, id)
}

// valueToString 把行里取出的值转成上下文字符串，nil 转空串
func valueToString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		return value.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case []byte:
		return string(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(s) == ""
}

func projectEntries(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		entries := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
		return entries
	default:
		return nil
	}
}
