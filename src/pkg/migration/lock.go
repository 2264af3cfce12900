package migration

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// LockFileExtension 锁文件扩展名
const LockFileExtension = ".migration.lock"

// LockManager 文档迁移锁，防止两个进程同时改写同一个文档
type LockManager struct {
	docPath  string
	lockPath string
}

// NewLockManager 创建锁管理器
func NewLockManager(docPath string) *LockManager {
	return &LockManager{
		docPath:  docPath,
		lockPath: docPath + LockFileExtension,
	}
}

// GetLockPath 返回锁文件路径
func (m *LockManager) GetLockPath() string {
	return m.lockPath
}

// Acquire 创建锁文件，已被锁定时返回 ErrLocked
func (m *LockManager) Acquire(info *LockInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock info: %w", err)
	}

	// O_EXCL 保证检查与创建是同一个原子操作
	f, err := os.OpenFile(m.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			existing, readErr := m.GetLockInfo()
			if readErr != nil {
				return fmt.Errorf("%w: lock file exists but cannot be read: %v", ErrLocked, readErr)
			}
			return fmt.Errorf("%w: started at %s (PID: %d)", ErrLocked, existing.StartTime, existing.PID)
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(m.lockPath)
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Release 删除锁文件
func (m *LockManager) Release() error {
	if err := os.Remove(m.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// IsLocked 检查锁文件是否存在
func (m *LockManager) IsLocked() bool {
	_, err := os.Stat(m.lockPath)
	return err == nil
}

// GetLockInfo 读取锁文件内容
func (m *LockManager) GetLockInfo() (*LockInfo, error) {
	data, err := os.ReadFile(m.lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock info: %w", err)
	}
	return &info, nil
}

// HolderAlive 判断持有锁的进程是否仍在运行
// 当前进程视为存活；无法判断时也视为存活，避免误删正在进行的迁移
func (info *LockInfo) HolderAlive() bool {
	if info.PID == os.Getpid() {
		return true
	}
	if info.PID <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(info.PID))
	if err != nil {
		return true
	}
	return exists
}

// CreateLockInfo 创建锁信息
func CreateLockInfo(docPath, backupPath, fromVersion, targetVersion string) *LockInfo {
	return &LockInfo{
		DocPath:       docPath,
		BackupPath:    backupPath,
		StartTime:     time.Now().Format(time.RFC3339),
		FromVersion:   fromVersion,
		TargetVersion: targetVersion,
		PID:           os.Getpid(),
	}
}
