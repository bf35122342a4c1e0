package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type dataTableRepository struct {
	db *gorm.DB
}

func NewDataTableRepository(db *gorm.DB) DataTableRepository {
	return &dataTableRepository{db: db}
}

// quote 按方言引用表名/列名，导入的列名可能包含中文或空格
func (r *dataTableRepository) quote(name string) string {
	name = strings.NewReplacer(`"`, "", "`", "").Replace(name)
	if r.db.Dialector.Name() == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func (r *dataTableRepository) ListTables(ctx context.Context) ([]string, error) {
	tables, err := r.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		// 过滤 sqlite 内部表
		if strings.HasPrefix(t, "sqlite_") {
			continue
		}
		names = append(names, t)
	}
	return names, nil
}

func (r *dataTableRepository) HasTable(ctx context.Context, name string) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(name)
}

// columnMeta 一列的元信息，pk 非零表示属于主键
type columnMeta struct {
	Name string `gorm:"column:name"`
	PK   int    `gorm:"column:pk"`
}

// columnMetas 直接查数据库元数据拿列信息。
// 导入的表名常含中文，Migrator 的 ColumnTypes 走 DDL 正则解析，
// 对非 ASCII 表名会报 invalid DDL，这里改用方言各自的元数据查询。
func (r *dataTableRepository) columnMetas(ctx context.Context, name string) ([]columnMeta, error) {
	var metas []columnMeta
	if r.db.Dialector.Name() == "mysql" {
		err := r.db.WithContext(ctx).Raw(
			"SELECT column_name AS name, (column_key = 'PRI') AS pk "+
				"FROM information_schema.columns "+
				"WHERE table_schema = DATABASE() AND table_name = ? "+
				"ORDER BY ordinal_position", name).Scan(&metas).Error
		return metas, err
	}
	// PRAGMA 的表名不支持参数绑定，只能引用后拼接
	err := r.db.WithContext(ctx).Raw("PRAGMA table_info(" + r.quote(name) + ")").Scan(&metas).Error
	return metas, err
}

func (r *dataTableRepository) Columns(ctx context.Context, name string) ([]string, error) {
	metas, err := r.columnMetas(ctx, name)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(metas))
	for _, m := range metas {
		columns = append(columns, m.Name)
	}
	return columns, nil
}

func (r *dataTableRepository) PrimaryKey(ctx context.Context, name string) (string, error) {
	metas, err := r.columnMetas(ctx, name)
	if err != nil {
		return "", err
	}
	for _, m := range metas {
		if m.PK != 0 {
			return m.Name, nil
		}
	}
	return "", nil
}

func (r *dataTableRepository) Rows(ctx context.Context, name string) ([]map[string]any, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).Table(name).Find(&rows).Error
	return rows, err
}

func (r *dataTableRepository) GetRow(ctx context.Context, name, pkColumn, pkValue string) (map[string]any, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Table(name).
		Where(r.quote(pkColumn)+" = ?", pkValue).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (r *dataTableRepository) UpdateRow(ctx context.Context, name, pkColumn string, pkValue any, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Table(name).
		Where(r.quote(pkColumn)+" = ?", pkValue).
		Updates(values)
	return result.Error
}

func (r *dataTableRepository) DeleteRow(ctx context.Context, name, pkColumn string, pkValue any) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.quote(name), r.quote(pkColumn)),
		pkValue,
	)
	return result.RowsAffected, result.Error
}

// Replace 重建并填充导入表，与建主键同在一个事务内
// columns 为数据列（不含 id），每行必须带 "id" 键作为主键值
func (r *dataTableRepository) Replace(ctx context.Context, name string, columns []string, rows []map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(name) {
			if err := tx.Migrator().DropTable(name); err != nil {
				return fmt.Errorf("drop existing table: %w", err)
			}
		}

		defs := make([]string, 0, len(columns)+1)
		defs = append(defs, r.quote("id")+" VARCHAR(64) PRIMARY KEY")
		for _, col := range columns {
			defs = append(defs, r.quote(col)+" TEXT")
		}
		createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", r.quote(name), strings.Join(defs, ", "))
		if err := tx.Exec(createStmt).Error; err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		for _, row := range rows {
			if err := tx.Table(name).Create(row).Error; err != nil {
				return fmt.Errorf("insert row: %w", err)
			}
		}
		return nil
	})
}

func (r *dataTableRepository) DropTable(ctx context.Context, name string) error {
	m := r.db.WithContext(ctx).Migrator()
	if !m.HasTable(name) {
		return ErrNotFound
	}
	return m.DropTable(name)
}
