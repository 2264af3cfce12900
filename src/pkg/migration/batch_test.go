package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplane2blender/x2b-updater/src/pkg/document"
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
)

func batchFixture(t *testing.T) (*BatchMigrator, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := []string{
		writeDoc(t, dir, "a.json", legacyDoc),
		writeDoc(t, dir, "b.json", `{"scenes": [{"schema_version": "bogus"}]}`),
		writeDoc(t, dir, "c.json", `{"scenes": [{"schema_version": "3.4.0"}]}`),
		writeDoc(t, dir, "d.yaml", "scenes:\n  - schema_version: \"\"\n"),
	}
	b := NewBatchMigrator()
	updater := NewUpdater(toolVersion, nil)
	for _, p := range paths[:2] {
		b.Add(&MigrationConfig{DocPath: p, Updater: updater})
	}
	b.AddMultiple([]*MigrationConfig{
		{DocPath: paths[2], Updater: updater},
		{DocPath: paths[3], Updater: updater},
	})
	return b, paths
}

func assertBatchResult(t *testing.T, result *BatchMigrationResult, paths []string) {
	t.Helper()
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], version.ErrInvalidVersionFormat)
	assert.Contains(t, result.Errors[0].Error(), paths[1])
	assert.ErrorIs(t, result.Err(), version.ErrInvalidVersionFormat)

	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[paths[0]].Migrated)
	assert.False(t, result.Results[paths[2]].Migrated)
	assert.True(t, result.Results[paths[3]].Migrated)
	assert.Equal(t, "3.3.0", result.Results[paths[3]].FromVersion.String())

	for _, p := range []string{paths[0], paths[3]} {
		doc, err := document.Load(p)
		require.NoError(t, err)
		assert.Equal(t, "3.4.0", doc.SceneNodes[0][StampKey])
	}
}

func TestBatchMigrator_Sequential(t *testing.T) {
	b, paths := batchFixture(t)
	assert.Equal(t, 4, b.Len())
	assertBatchResult(t, b.Run(context.Background(), 1), paths)
}

func TestBatchMigrator_Parallel(t *testing.T) {
	b, paths := batchFixture(t)
	assertBatchResult(t, b.Run(context.Background(), 3), paths)
}

func TestBatchMigrator_Empty(t *testing.T) {
	b := NewBatchMigrator()
	result := b.Run(context.Background(), 4)
	assert.True(t, result.Success)
	assert.Empty(t, result.Results)
	assert.NoError(t, result.Err())
}

func TestBatchMigrator_Clear(t *testing.T) {
	b, _ := batchFixture(t)
	b.Clear()
	assert.Zero(t, b.Len())
}

func TestBatchMigrator_Canceled(t *testing.T) {
	b, _ := batchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := b.Run(ctx, 1)
	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 4)
	assert.ErrorIs(t, result.Err(), context.Canceled)
}

func TestBatchMigrator_InvalidConfig(t *testing.T) {
	b := NewBatchMigrator()
	b.Add(&MigrationConfig{DocPath: filepath.Join(t.TempDir(), "plane.blend")})
	result := b.Run(context.Background(), 1)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err(), document.ErrUnknownFormat)
}

func TestMigrateDocument(t *testing.T) {
	docPath := writeDoc(t, t.TempDir(), "plane.json", legacyDoc)
	res, err := MigrateDocument(context.Background(), &MigrationConfig{
		DocPath: docPath,
		Updater: NewUpdater(toolVersion, nil),
		Backup:  true,
	})
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.FileExists(t, res.BackupPath)
}

func TestMigrateDocument_LiveLock(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "plane.json", legacyDoc)
	backupPath := writeDoc(t, dir, filepath.Base(backupName(docPath, "3.1.0", 1)), `{"stale": true}`)
	lock := NewLockManager(docPath)
	require.NoError(t, lock.Acquire(CreateLockInfo(docPath, backupPath, "3.1.0", "3.4.0")))

	_, err := MigrateDocument(context.Background(), &MigrationConfig{
		DocPath: docPath,
		Updater: NewUpdater(toolVersion, nil),
	})
	assert.ErrorIs(t, err, ErrLocked)
	assert.True(t, lock.IsLocked())

	content, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, legacyDoc, string(content))
}

func TestMigrateDocument_StaleLock(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "plane.json", "half written")
	backupPath := writeDoc(t, dir, filepath.Base(backupName(docPath, "3.2.0", 1)), legacyDoc)
	require.NoError(t, NewLockManager(docPath).Acquire(staleLockInfo(docPath, backupPath)))

	res, err := MigrateDocument(context.Background(), &MigrationConfig{
		DocPath: docPath,
		Updater: NewUpdater(toolVersion, nil),
	})
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, "3.2.0", res.FromVersion.String())
}
