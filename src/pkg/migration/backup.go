package migration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// backupMarker 备份文件名中的标记，形如 doc.json.pre-3.2.0.20260101_000000.bak
	backupMarker = ".pre-"
	// backupExt 备份文件扩展名
	backupExt = ".bak"
	// MaxBackupCount 每个文档最多保留的备份数量
	MaxBackupCount = 5
)

// BackupManager 文档备份管理器
type BackupManager struct {
	docPath string
	now     func() time.Time
}

// NewBackupManager 创建备份管理器
func NewBackupManager(docPath string) *BackupManager {
	return &BackupManager{
		docPath: docPath,
		now:     time.Now,
	}
}

// CreateBackup 在改写文档前复制一份，fromVersion 记录在文件名中
// 文档不存在时不备份，返回空路径
func (m *BackupManager) CreateBackup(fromVersion string) (string, error) {
	if _, err := os.Stat(m.docPath); os.IsNotExist(err) {
		return "", nil
	}

	backupPath := fmt.Sprintf("%s%s%s.%s%s",
		m.docPath, backupMarker, fromVersion, m.now().Format("20060102_150405.000000000"), backupExt)
	if err := copyFile(m.docPath, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	// 清理失败不影响迁移
	_ = m.CleanupOldBackups()
	return backupPath, nil
}

// RestoreBackup 用备份覆盖文档
func (m *BackupManager) RestoreBackup(backupPath string) error {
	if backupPath == "" {
		return fmt.Errorf("backup path is empty")
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}
	if err := copyFile(backupPath, m.docPath); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

// RemoveBackup 删除备份
func (m *BackupManager) RemoveBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	return nil
}

// ListBackups 列出文档的全部备份，最新的在前
func (m *BackupManager) ListBackups() ([]string, error) {
	dir := filepath.Dir(m.docPath)
	prefix := filepath.Base(m.docPath) + backupMarker

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	type backup struct {
		path  string
		stamp string
	}
	var backups []backup
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, backupExt) {
			continue
		}
		// 时间戳位于版本号之后，版本号本身含有点号
		rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), backupExt)
		stamp := rest
		if i := strings.LastIndex(rest, "_"); i > 0 {
			if j := strings.LastIndex(rest[:i], "."); j >= 0 {
				stamp = rest[j+1:]
			}
		}
		backups = append(backups, backup{path: filepath.Join(dir, name), stamp: stamp})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].stamp > backups[j].stamp
	})

	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths, nil
}

// CleanupOldBackups 只保留最近的 MaxBackupCount 个备份
func (m *BackupManager) CleanupOldBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackupCount {
		return nil
	}
	for _, backup := range backups[MaxBackupCount:] {
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", backup, err)
		}
	}
	return nil
}

// GetLatestBackup 返回最新的备份，没有备份时返回空字符串
func (m *BackupManager) GetLatestBackup() (string, error) {
	backups, err := m.ListBackups()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", nil
	}
	return backups[0], nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return err
	}
	return dstFile.Sync()
}
