package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenderwizard/backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

// buildXLSX 生成单工作表的 xlsx，首行为表头
func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportExcel(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	content := buildXLSX(t, [][]any{
		{"姓名", "邮箱"},
		{"张三", "zs@example.com"},
		{"李四", "ls@example.com"},
	})

	count, err := svc.ImportExcel(context.Background(), "人员表", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	table, err := svc.GetTable(context.Background(), "人员表")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "姓名", "邮箱"}, table.Columns)
	require.NotNil(t, table.PKColumn)
	assert.Equal(t, "id", *table.PKColumn)
	require.Len(t, table.Data, 2)
	// 每行分配了生成的主键
	for _, row := range table.Data {
		assert.NotEmpty(t, row["id"])
	}
}

func TestImportExcelRenamesIDColumn(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	content := buildXLSX(t, [][]any{
		{"id", "姓名"},
		{"7", "张三"},
	})

	_, err := svc.ImportExcel(context.Background(), "人员表", bytes.NewReader(content))
	require.NoError(t, err)

	table, err := svc.GetTable(context.Background(), "人员表")
	require.NoError(t, err)
	assert.Contains(t, table.Columns, "uploaded_id")
	require.Len(t, table.Data, 1)
	assert.Equal(t, "7", table.Data[0]["uploaded_id"])
	assert.NotEqual(t, "7", table.Data[0]["id"])
}

func TestImportExcelReplacesExistingTable(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	ctx := context.Background()

	first := buildXLSX(t, [][]any{{"姓名"}, {"张三"}, {"李四"}})
	_, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(first))
	require.NoError(t, err)

	second := buildXLSX(t, [][]any{{"姓名", "部门"}, {"王五", "技术部"}})
	count, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	table, err := svc.GetTable(ctx, "人员表")
	require.NoError(t, err)
	require.Len(t, table.Data, 1)
	assert.Equal(t, "王五", table.Data[0]["姓名"])
}

func TestImportExcelRejectsSystemTable(t *testing.T) {
	svc := NewDataTableService(repository.NewDataTableRepository(newTestDB(t)))
	content := buildXLSX(t, [][]any{{"a"}, {"1"}})

	_, err := svc.ImportExcel(context.Background(), "templates", bytes.NewReader(content))
	assert.ErrorIs(t, err, ErrSystemTable)
}

func TestImportExcelInvalidFile(t *testing.T) {
	svc := NewDataTableService(repository.NewDataTableRepository(newTestDB(t)))
	_, err := svc.ImportExcel(context.Background(), "人员表", bytes.NewReader([]byte("not an xlsx")))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestImportExcelEmptySheet(t *testing.T) {
	svc := NewDataTableService(repository.NewDataTableRepository(newTestDB(t)))
	content := buildXLSX(t, [][]any{{"姓名"}})
	_, err := svc.ImportExcel(context.Background(), "人员表", bytes.NewReader(content))
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestListTablesHidesSystemTables(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	ctx := context.Background()

	content := buildXLSX(t, [][]any{{"姓名"}, {"张三"}})
	_, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(content))
	require.NoError(t, err)

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"人员表"}, tables)
	assert.NotContains(t, tables, "templates")
	assert.NotContains(t, tables, "field_mappings")
}

func TestUpdateAndDeleteRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	ctx := context.Background()

	content := buildXLSX(t, [][]any{{"姓名"}, {"张三"}})
	_, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(content))
	require.NoError(t, err)
	table, err := svc.GetTable(ctx, "人员表")
	require.NoError(t, err)
	rowID := table.Data[0]["id"]

	err = svc.UpdateRow(ctx, "人员表", map[string]any{"id": rowID, "姓名": "张三丰"})
	require.NoError(t, err)
	table, err = svc.GetTable(ctx, "人员表")
	require.NoError(t, err)
	assert.Equal(t, "张三丰", table.Data[0]["姓名"])

	require.NoError(t, svc.DeleteRow(ctx, "人员表", map[string]any{"id": rowID}))
	err = svc.DeleteRow(ctx, "人员表", map[string]any{"id": rowID})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateRowMissingPKValue(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	ctx := context.Background()

	content := buildXLSX(t, [][]any{{"姓名"}, {"张三"}})
	_, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(content))
	require.NoError(t, err)

	err = svc.UpdateRow(ctx, "人员表", map[string]any{"姓名": "张三丰"})
	assert.ErrorIs(t, err, ErrMissingPKValue)
}

func TestDropTable(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataTableService(repository.NewDataTableRepository(db))
	ctx := context.Background()

	content := buildXLSX(t, [][]any{{"姓名"}, {"张三"}})
	_, err := svc.ImportExcel(ctx, "人员表", bytes.NewReader(content))
	require.NoError(t, err)

	require.NoError(t, svc.DropTable(ctx, "人员表"))
	_, err = svc.GetTable(ctx, "人员表")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, svc.DropTable(ctx, "templates"), ErrSystemTable)
}
