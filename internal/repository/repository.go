package repository

import (
	"context"
	"errors"

	"github.com/tenderwizard/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// ErrNoPrimaryKey 表没有主键，行级操作不可用
var ErrNoPrimaryKey = errors.New("table has no primary key")

type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.Template) error
	List(ctx context.Context) ([]model.Template, error)
	Get(ctx context.Context, id uint) (*model.Template, error)
	Save(ctx context.Context, tpl *model.Template) error
	Delete(ctx context.Context, id uint) error
}

type MappingRepository interface {
	// Upsert 整体替换 (template_id, table_name) 对应的映射记录
	Upsert(ctx context.Context, mapping *model.FieldMapping) error
	// Get 不存在时返回 ErrNotFound
	Get(ctx context.Context, templateID uint, tableName string) (*model.FieldMapping, error)
	ListByTemplate(ctx context.Context, templateID uint) ([]model.FieldMapping, error)
	DeleteByTemplate(ctx context.Context, templateID uint) error
}

type APIConfigRepository interface {
	Create(ctx context.Context, cfg *model.APIConfig) error
	Update(ctx context.Context, cfg *model.APIConfig) error
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.APIConfig, error)
	List(ctx context.Context) ([]model.APIConfig, error)
	// GetActive 返回当前启用的配置，没有则 ErrNotFound
	GetActive(ctx context.Context) (*model.APIConfig, error)
	// Activate 启用指定配置并停用其余配置
	Activate(ctx context.Context, id uint) error
}

// DataTableRepository 动态导入表的存取
// 表结构在导入时才确定，走表名/列名级别的动态 SQL
type DataTableRepository interface {
	ListTables(ctx context.Context) ([]string, error)
	HasTable(ctx context.Context, name string) bool
	Columns(ctx context.Context, name string) ([]string, error)
	// PrimaryKey 返回主键列名，没有主键返回空串
	PrimaryKey(ctx context.Context, name string) (string, error)
	Rows(ctx context.Context, name string) ([]map[string]any, error)
	// GetRow 按主键取一行，不存在返回 ErrNotFound
	GetRow(ctx context.Context, name, pkColumn, pkValue string) (map[string]any, error)
	UpdateRow(ctx context.Context, name, pkColumn string, pkValue any, values map[string]any) error
	// DeleteRow 返回删除的行数
	DeleteRow(ctx context.Context, name, pkColumn string, pkValue any) (int64, error)
	// Replace 在一个事务内重建表并写入全部行，id 列为主键
	Replace(ctx context.Context, name string, columns []string, rows []map[string]any) error
	DropTable(ctx context.Context, name string) error
}
