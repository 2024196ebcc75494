package db

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"NovaFM/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return gdb
}

func TestMigrateFreshDatabase(t *testing.T) {
	gdb := openTestDB(t)

	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var rec schemaMigration
	if err := gdb.First(&rec, 1).Error; err != nil {
		t.Fatalf("read version: %v", err)
	}
	want := migrations[len(migrations)-1].To
	if rec.Version != want {
		t.Errorf("version = %d, want %d", rec.Version, want)
	}

	// All tables usable after a fresh replay.
	track := model.Track{ID: "yt_a", Title: "A"}
	if err := gdb.Create(&track).Error; err != nil {
		t.Errorf("tracks table unusable: %v", err)
	}
	played := model.RecentlyPlayed{TrackID: "yt_a"}
	if err := gdb.Create(&played).Error; err != nil {
		t.Errorf("recently_played table unusable: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	gdb := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := Migrate(gdb); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}

	var count int64
	if err := gdb.Model(&schemaMigration{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", count)
	}
}
