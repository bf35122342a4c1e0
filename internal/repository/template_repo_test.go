package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/tenderwizard/backend/internal/model"
)

func TestTemplateRepositoryCRUD(t *testing.T) {
	db := setupDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	tpl := &model.Template{Name: "标准简历", Filename: "resume.docx", FileContent: []byte("PK\x03\x04fake")}
	if err := repo.Create(ctx, tpl); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 template, got %d", len(list))
	}
	if len(list[0].FileContent) != 0 {
		t.Error("List should not load file contents")
	}

	loaded, err := repo.Get(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(loaded.FileContent) != "PK\x03\x04fake" {
		t.Error("Get must return file contents")
	}

	if err := repo.Delete(ctx, tpl.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
