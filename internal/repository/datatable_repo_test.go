package repository

import (
	"context"
	"errors"
	"testing"
)

func seedTable(t *testing.T, repo DataTableRepository, name string) {
	t.Helper()
	rows := []map[string]any{
		{"id": "r1", "姓名": "张三", "邮箱": "zhang@example.com"},
		{"id": "r2", "姓名": "李四", "邮箱": "li@example.com"},
	}
	if err := repo.Replace(context.Background(), name, []string{"姓名", "邮箱"}, rows); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
}

func TestDataTableReplaceAndRead(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	seedTable(t, repo, "人员表")

	tables, err := repo.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	found := false
	for _, name := range tables {
		if name == "人员表" {
			found = true
		}
	}
	if !found {
		t.Fatalf("imported table missing from list: %v", tables)
	}

	pk, err := repo.PrimaryKey(ctx, "人员表")
	if err != nil {
		t.Fatalf("PrimaryKey failed: %v", err)
	}
	if pk != "id" {
		t.Errorf("expected id as primary key, got %q", pk)
	}

	columns, err := repo.Columns(ctx, "人员表")
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(columns) != 3 {
		t.Errorf("expected 3 columns, got %v", columns)
	}

	rows, err := repo.Rows(ctx, "人员表")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

// TestDataTableReplaceDropsOldData 重复导入同名表是整表替换
func TestDataTableReplaceDropsOldData(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	seedTable(t, repo, "人员表")
	if err := repo.Replace(ctx, "人员表", []string{"姓名"}, []map[string]any{{"id": "x", "姓名": "王五"}}); err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}

	rows, err := repo.Rows(ctx, "人员表")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("replace must drop old rows, got %d", len(rows))
	}
}

func TestDataTableGetRow(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	seedTable(t, repo, "persons")

	row, err := repo.GetRow(ctx, "persons", "id", "r1")
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if row["姓名"] != "张三" {
		t.Errorf("unexpected row: %v", row)
	}

	if _, err := repo.GetRow(ctx, "persons", "id", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDataTableUpdateAndDeleteRow(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	seedTable(t, repo, "persons")

	if err := repo.UpdateRow(ctx, "persons", "id", "r1", map[string]any{"姓名": "张三丰"}); err != nil {
		t.Fatalf("UpdateRow failed: %v", err)
	}
	row, err := repo.GetRow(ctx, "persons", "id", "r1")
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if row["姓名"] != "张三丰" {
		t.Errorf("update not applied: %v", row)
	}

	affected, err := repo.DeleteRow(ctx, "persons", "id", "r2")
	if err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("expected 1 row deleted, got %d", affected)
	}
	affected, err = repo.DeleteRow(ctx, "persons", "id", "r2")
	if err != nil {
		t.Fatalf("second DeleteRow failed: %v", err)
	}
	if affected != 0 {
		t.Errorf("deleting a missing row should affect 0 rows, got %d", affected)
	}
}

func TestDataTableDropTable(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	seedTable(t, repo, "persons")
	if err := repo.DropTable(ctx, "persons"); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}
	if repo.HasTable(ctx, "persons") {
		t.Error("table still present after drop")
	}
	if err := repo.DropTable(ctx, "persons"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDataTableMetadataWithNonASCIIName(t *testing.T) {
	db := setupDB(t)
	repo := NewDataTableRepository(db)
	ctx := context.Background()

	// 导入表名和列名都常是中文，列元信息查询必须不依赖 DDL 解析
	seedTable(t, repo, "人员表")

	pk, err := repo.PrimaryKey(ctx, "人员表")
	if err != nil {
		t.Fatalf("PrimaryKey failed for non-ASCII table name: %v", err)
	}
	if pk != "id" {
		t.Errorf("expected id as primary key, got %q", pk)
	}

	columns, err := repo.Columns(ctx, "人员表")
	if err != nil {
		t.Fatalf("Columns failed for non-ASCII table name: %v", err)
	}
	want := map[string]bool{"id": true, "姓名": true, "邮箱": true}
	if len(columns) != len(want) {
		t.Fatalf("expected %d columns, got %v", len(want), columns)
	}
	for _, c := range columns {
		if !want[c] {
			t.Errorf("unexpected column %q", c)
		}
	}
}
