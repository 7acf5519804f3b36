package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuilderMergesSourcesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", `
db:
  class: store/Sqlite
  singleton: "true"
cache:
  class: cache/Memory
`)
	override := writeFile(t, dir, "override.json", `{
  "cache": {"class": "cache/Redis", "load_in": "repo"},
  "mail":  {"class": "mail/Smtp"}
}`)

	var logs bytes.Buffer
	store, err := NewDefinitionsBuilder().
		WithLogger(logging.New(logging.Options{Level: logging.LogLevelInfo, Output: &logs})).
		AddYamlFile(base).
		AddJsonFile(override).
		AddYamlFile(filepath.Join(dir, "missing.yaml"), true).
		AddInMemory(&di.ComponentDefinition{Name: "mail", Class: "mail/Null"}).
		AddBytes("inline", []byte("clock: {class: time/Clock}\n")).
		Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "cache", "mail", "clock"}, store.Names())

	cache, ok := store.Get("cache")
	require.True(t, ok)
	assert.Equal(t, "cache/Redis", cache.Class)
	assert.True(t, cache.InCategory("repo"))

	mail, _ := store.Get("mail")
	assert.Equal(t, "mail/Null", mail.Class)

	assert.Contains(t, logs.String(), "Definition source loaded")
	assert.Contains(t, logs.String(), "[config]")
}

func TestBuilderErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewDefinitionsBuilder().
		AddYamlFile(filepath.Join(dir, "required.yaml")).
		Build(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.yaml", "svc: {singleton: \"true\"}\n")
	_, err = NewDefinitionsBuilder().AddYamlFile(bad).Build(context.Background())
	var ide *di.InvalidDefinitionError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "svc", ide.Component)

	_, err = NewDefinitionsBuilder().
		AddEtcd(func(o *EtcdOptions) { o.Endpoints = nil }).
		AddRedis(func(o *RedisOptions) { o.Key = "" }).
		AddMongo("", nil).
		AddDatabase(nil).
		Build(context.Background())
	require.Error(t, err)
	for _, want := range []string{"etcd endpoints", "redis hash key", "mongo uri", "dialector"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDecodeEntries(t *testing.T) {
	entries := []entry{
		{Name: "zeta", Spec: []byte("class: Z")},
		{Name: "", Spec: []byte("ignored")},
		{Name: "alpha", Spec: []byte("{class: A, load_in: [x]}")},
	}

	doc, err := decodeEntries("remote", entries, false)
	require.NoError(t, err)
	require.Len(t, doc.Definitions, 2)
	assert.Equal(t, "alpha", doc.Definitions[0].Name)
	assert.Equal(t, "zeta", doc.Definitions[1].Name)
	assert.Equal(t, "remote", doc.Source)

	_, err = decodeEntries("remote", []entry{{Name: "x", Spec: []byte("class: [")}}, true)
	var ide *di.InvalidDefinitionError
	assert.ErrorAs(t, err, &ide)
}

func TestEtcdComponentName(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"/beans/definitions/", "/beans/definitions/mailer", "mailer"},
		{"/beans/definitions", "/beans/definitions/mail/smtp", "mail.smtp"},
		{"/beans/definitions/", "/beans/definitions/", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, etcdComponentName(tt.prefix, tt.key), tt.key)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestDatabaseSource(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, MigrateDefinitions(db, DefaultDefinitionsTable))

	require.NoError(t, SaveDefinition(ctx, db, DefaultDefinitionsTable, DefinitionRecord{Name: "repo", Spec: "class: store/Repo", Position: 2}))
	require.NoError(t, SaveDefinition(ctx, db, DefaultDefinitionsTable, DefinitionRecord{Name: "db", Spec: "class: store/Sqlite", Position: 1}))
	// 同名更新
	require.NoError(t, SaveDefinition(ctx, db, DefaultDefinitionsTable, DefinitionRecord{Name: "repo", Spec: "{class: store/CachedRepo, singleton: \"true\"}", Position: 3}))

	err := SaveDefinition(ctx, db, DefaultDefinitionsTable, DefinitionRecord{Name: "broken", Spec: "singleton: true"})
	assert.Error(t, err)

	store, err := NewDefinitionsBuilder().
		AddDatabase(func(o *DatabaseOptions) { o.DB = db }).
		Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "repo"}, store.Names())
	repo, _ := store.Get("repo")
	assert.Equal(t, "store/CachedRepo", repo.Class)
	assert.True(t, repo.Singleton)
}

func TestDatabaseSourceWithDialector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.db")

	store, err := NewDefinitionsBuilder().
		AddDatabase(func(o *DatabaseOptions) {
			o.Dialector = sqlite.Open(path)
			o.GormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
			o.Table = "beans"
			o.AutoMigrate = true
		}).
		Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}
