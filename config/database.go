package config

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/beans/di"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefinitionRecord 数据库中的一条组件定义
type DefinitionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:191;uniqueIndex;not null"`
	Spec      string `gorm:"type:text;not null"`
	Position  int    `gorm:"index"`
	UpdatedAt time.Time
}

// DefaultDefinitionsTable 默认表名
const DefaultDefinitionsTable = "component_definitions"

// DatabaseOptions SQL 定义源配置
type DatabaseOptions struct {
	DB          *gorm.DB       // 已有连接（优先）
	Dialector   gorm.Dialector // 未提供 DB 时用于打开连接
	GormConfig  *gorm.Config
	Table       string
	AutoMigrate bool // 加载前自动建表
}

// NewDefaultDatabaseOptions 创建默认配置
func NewDefaultDatabaseOptions() *DatabaseOptions {
	return &DatabaseOptions{
		GormConfig: &gorm.Config{},
		Table:      DefaultDefinitionsTable,
	}
}

// Validate 验证配置
func (o *DatabaseOptions) Validate() error {
	if o.DB == nil && o.Dialector == nil {
		return fmt.Errorf("database connection or dialector is required")
	}
	if o.Table == "" {
		return fmt.Errorf("definitions table is required")
	}
	return nil
}

// DatabaseSource SQL 定义源，按 position、id 顺序读取
type DatabaseSource struct {
	Options DatabaseOptions
}

func (s *DatabaseSource) Name() string {
	return fmt.Sprintf("Database(%s)", s.Options.Table)
}

func (s *DatabaseSource) Load(ctx context.Context) (*di.Document, error) {
	db := s.Options.DB
	if db == nil {
		opened, err := gorm.Open(s.Options.Dialector, s.Options.GormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if sqlDB, err := opened.DB(); err == nil {
			defer sqlDB.Close()
		}
		db = opened
	}

	if s.Options.AutoMigrate {
		if err := MigrateDefinitions(db, s.Options.Table); err != nil {
			return nil, err
		}
	}

	var records []DefinitionRecord
	err := db.WithContext(ctx).
		Table(s.Options.Table).
		Order("position asc, id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}

	entries := make([]entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, entry{Name: r.Name, Spec: []byte(r.Spec)})
	}
	return decodeEntries(s.Name(), entries, true)
}

// MigrateDefinitions 创建定义表
func MigrateDefinitions(db *gorm.DB, table string) error {
	if err := db.Table(table).AutoMigrate(&DefinitionRecord{}); err != nil {
		return fmt.Errorf("auto migrate failed for '%s': %w", table, err)
	}
	return nil
}

// SaveDefinition 写入或更新一条定义，写入前校验定义文本
func SaveDefinition(ctx context.Context, db *gorm.DB, table string, record DefinitionRecord) error {
	if _, err := di.ParseDefinition(table, record.Name, []byte(record.Spec)); err != nil {
		return err
	}
	return db.WithContext(ctx).Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"spec", "position", "updated_at"}),
	}).Create(&record).Error
}
