package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/tenderwizard/backend/internal/model"
	"github.com/tenderwizard/backend/internal/repository"
	"github.com/xuri/excelize/v2"
	"k8s.io/klog/v2"
)

var (
	// ErrSystemTable 拒绝对系统表的数据操作
	ErrSystemTable = errors.New("access denied to system tables")
	// ErrMissingPKValue 请求中缺少主键值
	ErrMissingPKValue = errors.New("primary key value is missing")
	// ErrEmptySheet 导入的工作表没有数据
	ErrEmptySheet = errors.New("spreadsheet has no data rows")
)

// TableData 一张导入表的完整读取结果
type TableData struct {
	TableName string           `json:"table_name"`
	PKColumn  *string          `json:"pk_column"`
	Columns   []string         `json:"columns"`
	Data      []map[string]any `json:"data"`
}

// DataTableService 导入数据表的管理
type DataTableService interface {
	// ImportExcel 读取 Excel 首个工作表并整表导入，返回导入行数
	ImportExcel(ctx context.Context, tableName string, r io.Reader) (int, error)
	ListTables(ctx context.Context) ([]string, error)
	GetTable(ctx context.Context, name string) (*TableData, error)
	// UpdateRow/DeleteRow 以 data 中的主键值定位行
	UpdateRow(ctx context.Context, name string, data map[string]any) error
	DeleteRow(ctx context.Context, name string, data map[string]any) error
	DropTable(ctx context.Context, name string) error
	// GetRawRow 按主键取原始行（未经映射改名）
	GetRawRow(ctx context.Context, name, recordID string) (map[string]any, error)
}

type dataTableService struct {
	tables repository.DataTableRepository
}

func NewDataTableService(tables repository.DataTableRepository) DataTableService {
	return &dataTableService{tables: tables}
}

func (s *dataTableService) ImportExcel(ctx context.Context, tableName string, r io.Reader) (int, error) {
	if model.IsSystemTable(tableName) {
		return 0, ErrSystemTable
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) < 2 {
		return 0, ErrEmptySheet
	}

	// 表头行；已有 id 列改名为 uploaded_id，主键 id 由导入生成
	header := rows[0]
	columns := make([]string, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "id" {
			name = "uploaded_id"
		}
		columns[i] = name
	}

	var kept []string
	for _, c := range columns {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return 0, ErrEmptySheet
	}

	data := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := map[string]any{"id": uuid.NewString()}
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		data = append(data, record)
	}

	if err := s.tables.Replace(ctx, tableName, kept, data); err != nil {
		return 0, err
	}
	klog.V(6).Infof("Excel 导入成功: table=%s, rows=%d", tableName, len(data))
	return len(data), nil
}

func (s *dataTableService) ListTables(ctx context.Context) ([]string, error) {
	tables, err := s.tables.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]string, 0, len(tables))
	for _, t := range tables {
		if model.IsSystemTable(t) {
			continue
		}
		visible = append(visible, t)
	}
	return visible, nil
}

func (s *dataTableService) GetTable(ctx context.Context, name string) (*TableData, error) {
	if model.IsSystemTable(name) {
		return nil, ErrSystemTable
	}
	if !s.tables.HasTable(ctx, name) {
		return nil, repository.ErrNotFound
	}

	columns, err := s.tables.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	pk, err := s.tables.PrimaryKey(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := s.tables.Rows(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &TableData{TableName: name, Columns: columns, Data: rows}
	if pk != "" {
		result.PKColumn = &pk
	}
	return result, nil
}

func (s *dataTableService) UpdateRow(ctx context.Context, name string, data map[string]any) error {
	if model.IsSystemTable(name) {
		return ErrSystemTable
	}
	pk, err := s.requirePK(ctx, name)
	if err != nil {
		return err
	}
	pkValue, ok := data[pk]
	if !ok || pkValue == nil {
		return ErrMissingPKValue
	}

	values := make(map[string]any, len(data))
	for k, v := range data {
		if k == pk {
			continue
		}
		values[k] = v
	}
	return s.tables.UpdateRow(ctx, name, pk, pkValue, values)
}

func (s *dataTableService) DeleteRow(ctx context.Context, name string, data map[string]any) error {
	if model.IsSystemTable(name) {
		return ErrSystemTable
	}
	pk, err := s.requirePK(ctx, name)
	if err != nil {
		return err
	}
	pkValue, ok := data[pk]
	if !ok || pkValue == nil {
		return ErrMissingPKValue
	}

	affected, err := s.tables.DeleteRow(ctx, name, pk, pkValue)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *dataTableService) DropTable(ctx context.Context, name string) error {
	if model.IsSystemTable(name) {
		return ErrSystemTable
	}
	return s.tables.DropTable(ctx, name)
}

func (s *dataTableService) GetRawRow(ctx context.Context, name, recordID string) (map[string]any, error) {
	pk, err := s.requirePK(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.tables.GetRow(ctx, name, pk, recordID)
}

func (s *dataTableService) requirePK(ctx context.Context, name string) (string, error) {
	if !s.tables.HasTable(ctx, name) {
		return "", repository.ErrNotFound
	}
	pk, err := s.tables.PrimaryKey(ctx, name)
	if err != nil {
		return "", err
	}
	if pk == "" {
		return "", fmt.Errorf("%w: %s", repository.ErrNoPrimaryKey, name)
	}
	return pk, nil
}
