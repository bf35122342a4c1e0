package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/tenderwizard/backend/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.Template{}, &model.FieldMapping{}, &model.APIConfig{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestMappingRepositoryUpsertRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewMappingRepository(db)
	ctx := context.Background()

	data, _ := json.Marshal(map[string]string{"name": "姓名"})
	mapping := &model.FieldMapping{
		TemplateID:  1,
		TableName:   "persons",
		MappingData: datatypes.JSON(data),
	}
	if err := repo.Upsert(ctx, mapping); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	loaded, err := repo.Get(ctx, 1, "persons")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(loaded.MappingData, &got); err != nil {
		t.Fatalf("unmarshal mapping_data: %v", err)
	}
	if got["name"] != "姓名" {
		t.Errorf("round-trip lost mapping: %v", got)
	}
}

// TestMappingRepositoryUpsertReplaces 二次保存必须整体替换而不是合并
func TestMappingRepositoryUpsertReplaces(t *testing.T) {
	db := setupDB(t)
	repo := NewMappingRepository(db)
	ctx := context.Background()

	first, _ := json.Marshal(map[string]string{"name": "姓名", "email": "邮箱"})
	if err := repo.Upsert(ctx, &model.FieldMapping{TemplateID: 1, TableName: "persons", MappingData: datatypes.JSON(first)}); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	second, _ := json.Marshal(map[string]string{"name": "全名"})
	if err := repo.Upsert(ctx, &model.FieldMapping{TemplateID: 1, TableName: "persons", MappingData: datatypes.JSON(second)}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	var count int64
	db.Model(&model.FieldMapping{}).Count(&count)
	if count != 1 {
		t.Fatalf("upsert must not create duplicate rows, got %d", count)
	}

	loaded, err := repo.Get(ctx, 1, "persons")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got map[string]string
	json.Unmarshal(loaded.MappingData, &got)
	if got["name"] != "全名" {
		t.Errorf("mapping not replaced: %v", got)
	}
	if _, ok := got["email"]; ok {
		t.Errorf("old keys must not survive a whole-replace upsert: %v", got)
	}
}

func TestMappingRepositoryGetNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewMappingRepository(db)

	_, err := repo.Get(context.Background(), 99, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMappingRepositoryListByTemplate(t *testing.T) {
	db := setupDB(t)
	repo := NewMappingRepository(db)
	ctx := context.Background()

	for _, table := range []string{"persons", "projects"} {
		data, _ := json.Marshal(map[string]string{"k": table})
		if err := repo.Upsert(ctx, &model.FieldMapping{TemplateID: 7, TableName: table, MappingData: datatypes.JSON(data)}); err != nil {
			t.Fatalf("Upsert %s failed: %v", table, err)
		}
	}

	mappings, err := repo.ListByTemplate(ctx, 7)
	if err != nil {
		t.Fatalf("ListByTemplate failed: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(mappings))
	}
}

func TestFieldMappingMigratedTableName(t *testing.T) {
	db := setupDB(t)
	// 默认命名策略把 FieldMapping 复数化为 field_mappings，
	// 系统表黑名单依赖这个名字
	if !db.Migrator().HasTable("field_mappings") {
		t.Fatal("expected field_mappings table after migration")
	}
}
