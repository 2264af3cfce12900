package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xplane2blender/x2b-updater/src/consts"
	"github.com/xplane2blender/x2b-updater/src/metrics"
	"github.com/xplane2blender/x2b-updater/src/pkg/document"
	"github.com/xplane2blender/x2b-updater/src/pkg/history"
)

var (
	// ErrCorruptLegacyData 旧文件中保存的枚举序号无法还原
	ErrCorruptLegacyData = errors.New("corrupt legacy data")
	// ErrNoPrimaryScene 数据图中没有主场景，无法读写版本戳
	ErrNoPrimaryScene = errors.New("no primary scene")
	// ErrMigrationFailed 迁移失败错误
	ErrMigrationFailed = errors.New("migration failed")
	// ErrRollbackFailed 回滚失败错误
	ErrRollbackFailed = errors.New("rollback failed")
	// ErrLocked 文档正被另一个迁移改写
	ErrLocked = errors.New("document is locked by another migration")
	// ErrNoBackup 无备份可回滚错误
	ErrNoBackup = errors.New("no backup available for rollback")
)

// 文档处理结果，用于 metrics.DocumentsProcessed 的 result 标签
const (
	outcomeMigrated = "migrated"
	outcomeUpToDate = "up_to_date"
	outcomeStamped  = "stamped"
	outcomeFailed   = "failed"
)

// Migrator 单个文档文件的迁移器
// 负责锁、备份、加载、迁移、保存以及失败时的回滚
type Migrator struct {
	config        *MigrationConfig
	updater       *Updater
	lockManager   *LockManager
	backupManager *BackupManager
	logger        *logrus.Entry
}

// NewMigrator 创建迁移器
func NewMigrator(config *MigrationConfig) (*Migrator, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.DocPath == "" {
		return nil, fmt.Errorf("document path cannot be empty")
	}
	if _, err := document.FormatFromPath(config.DocPath); err != nil {
		return nil, err
	}

	updater := config.Updater
	if updater == nil {
		current, err := consts.CurrentVersion()
		if err != nil {
			return nil, err
		}
		updater = NewUpdater(current, nil)
	}

	return &Migrator{
		config:        config,
		updater:       updater,
		lockManager:   NewLockManager(config.DocPath),
		backupManager: NewBackupManager(config.DocPath),
		logger: logrus.WithFields(logrus.Fields{
			"component": "migrator",
			"doc_path":  config.DocPath,
		}),
	}, nil
}

// Run 迁移文档
//
// 只读取版本戳判断是否需要迁移；已是最新版本的文档不会被加载或改写。
// 需要迁移时先备份并加锁，迁移后保存；保存失败时用备份还原。
func (m *Migrator) Run(ctx context.Context) (result *MigrationResult, err error) {
	defer func() {
		switch {
		case err != nil:
			metrics.DocumentsProcessed.WithLabelValues(outcomeFailed).Inc()
		case result != nil && result.Migrated:
			metrics.DocumentsProcessed.WithLabelValues(outcomeMigrated).Inc()
		default:
			metrics.DocumentsProcessed.WithLabelValues(outcomeUpToDate).Inc()
		}
	}()

	if err := m.checkLock(); err != nil {
		return nil, err
	}

	raw, present, err := document.PeekVersion(m.config.DocPath, StampKey)
	if err != nil {
		if errors.Is(err, document.ErrNoScenes) {
			return nil, fmt.Errorf("%w: %s", ErrNoPrimaryScene, m.config.DocPath)
		}
		return nil, err
	}
	from, err := ResolveStamp(raw, present)
	if err != nil {
		m.logger.WithError(err).Error("cannot determine file version, migration aborted")
		return nil, fmt.Errorf("cannot determine version of %s: %w", m.config.DocPath, err)
	}

	if !m.updater.NeedsMigration(from) {
		m.logger.WithField("file_version", from.String()).Debug("document is up to date")
		result = &MigrationResult{FromVersion: from, ToVersion: from}
		m.record(ctx, result)
		return result, nil
	}

	var backupPath string
	if m.config.Backup {
		backupPath, err = m.backupManager.CreateBackup(from.String())
		if err != nil {
			return nil, err
		}
	}

	lockInfo := CreateLockInfo(m.config.DocPath, backupPath, from.String(), m.updater.Current().String())
	if err := m.lockManager.Acquire(lockInfo); err != nil {
		_ = m.backupManager.RemoveBackup(backupPath)
		return nil, err
	}
	defer m.lockManager.Release()

	doc, err := document.Load(m.config.DocPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	result, err = m.updater.OnLoad(doc.FilePath(), doc)
	if err != nil {
		// 还没有写文件，不需要回滚
		return result, err
	}
	result.BackupPath = backupPath

	if err := doc.Save(); err != nil {
		return result, m.rollbackAfter(err, backupPath)
	}

	m.record(ctx, result)
	return result, nil
}

// Stamp 把当前版本写入文档而不执行任何迁移，相当于宿主保存时的钩子
func (m *Migrator) Stamp(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			metrics.DocumentsProcessed.WithLabelValues(outcomeFailed).Inc()
		} else {
			metrics.DocumentsProcessed.WithLabelValues(outcomeStamped).Inc()
		}
	}()

	if err := m.checkLock(); err != nil {
		return err
	}
	lockInfo := CreateLockInfo(m.config.DocPath, "", "", m.updater.Current().String())
	if err := m.lockManager.Acquire(lockInfo); err != nil {
		return err
	}
	defer m.lockManager.Release()

	doc, err := document.Load(m.config.DocPath)
	if err != nil {
		return err
	}
	from, verr := m.updater.FileVersion(doc)
	if err := m.updater.OnSave(doc); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}

	entry := m.logger.WithField("version", m.updater.Current().String())
	if verr == nil {
		entry = entry.WithField("previous_version", from.String())
	}
	entry.Info("document stamped")

	pass := m.passOf(&MigrationResult{FromVersion: from, ToVersion: m.updater.Current()})
	if verr != nil {
		// 原版本戳无法解析，不记录来源版本
		pass.FromVersion = ""
	}
	m.store(ctx, pass)
	return nil
}

// Rollback 从备份还原文档
// 存在锁文件时使用锁文件中记录的备份，否则使用最新的备份
func (m *Migrator) Rollback() error {
	if m.lockManager.IsLocked() {
		lockInfo, err := m.lockManager.GetLockInfo()
		if err != nil {
			return fmt.Errorf("failed to read lock info: %w", err)
		}
		if lockInfo.HolderAlive() {
			return fmt.Errorf("%w: migration still running (PID: %d)", ErrLocked, lockInfo.PID)
		}
		if lockInfo.BackupPath == "" {
			return ErrNoBackup
		}

		m.logger.WithField("backup_path", lockInfo.BackupPath).Info("rolling back from lock file info")
		if err := m.backupManager.RestoreBackup(lockInfo.BackupPath); err != nil {
			return fmt.Errorf("%w: %v", ErrRollbackFailed, err)
		}
		return m.lockManager.Release()
	}

	latestBackup, err := m.backupManager.GetLatestBackup()
	if err != nil {
		return fmt.Errorf("failed to get latest backup: %w", err)
	}
	if latestBackup == "" {
		return ErrNoBackup
	}

	m.logger.WithField("backup_path", latestBackup).Info("rolling back from latest backup")
	if err := m.backupManager.RestoreBackup(latestBackup); err != nil {
		return fmt.Errorf("%w: %v", ErrRollbackFailed, err)
	}
	return nil
}

// CheckAndRecover 检查并恢复未完成的迁移
// 锁文件存在且持有进程已退出表示上次迁移没有正常结束，此时用锁文件记录的备份还原并释放锁
// 持有进程仍在运行时返回 ErrLocked，不改动文档和锁
func (m *Migrator) CheckAndRecover() (bool, error) {
	if !m.lockManager.IsLocked() {
		return false, nil
	}

	lockInfo, err := m.lockManager.GetLockInfo()
	if err != nil {
		return false, fmt.Errorf("failed to read lock info: %w", err)
	}
	if lockInfo.HolderAlive() {
		return false, fmt.Errorf("%w: migration still running (PID: %d)", ErrLocked, lockInfo.PID)
	}

	m.logger.WithFields(logrus.Fields{
		"start_time":   lockInfo.StartTime,
		"pid":          lockInfo.PID,
		"from_version": lockInfo.FromVersion,
		"backup_path":  lockInfo.BackupPath,
	}).Warn("detected incomplete migration, attempting recovery")

	if lockInfo.BackupPath != "" {
		if err := m.backupManager.RestoreBackup(lockInfo.BackupPath); err != nil {
			return true, fmt.Errorf("%w: %v", ErrRollbackFailed, err)
		}
		m.logger.Info("document recovered from backup")
	}

	return true, m.lockManager.Release()
}

// Backups 返回文档的备份列表，最新的在前
func (m *Migrator) Backups() ([]string, error) {
	return m.backupManager.ListBackups()
}

func (m *Migrator) checkLock() error {
	if !m.lockManager.IsLocked() {
		return nil
	}
	lockInfo, err := m.lockManager.GetLockInfo()
	if err != nil {
		return fmt.Errorf("%w: cannot read lock info: %v", ErrLocked, err)
	}
	return fmt.Errorf("%w: started at %s (PID: %d)", ErrLocked, lockInfo.StartTime, lockInfo.PID)
}

func (m *Migrator) rollbackAfter(cause error, backupPath string) error {
	m.logger.WithError(cause).Error("saving migrated document failed, attempting rollback")
	if backupPath == "" {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, cause)
	}
	if err := m.backupManager.RestoreBackup(backupPath); err != nil {
		m.logger.WithError(err).Error("rollback failed")
		return fmt.Errorf("%w: %v (rollback also failed: %v)", ErrRollbackFailed, cause, err)
	}
	m.logger.Info("rollback completed successfully")
	return fmt.Errorf("%w: %v", ErrMigrationFailed, cause)
}

// record 写入迁移历史，失败只记录日志
func (m *Migrator) record(ctx context.Context, res *MigrationResult) {
	if res == nil {
		return
	}
	m.store(ctx, m.passOf(res))
}

func (m *Migrator) passOf(res *MigrationResult) *history.Pass {
	return &history.Pass{
		DocPath:        m.config.DocPath,
		FromVersion:    res.FromVersion.String(),
		ToVersion:      res.ToVersion.String(),
		Steps:          res.Steps,
		Migrated:       res.Migrated,
		CorruptRecords: len(res.CorruptRecords()),
	}
}

func (m *Migrator) store(ctx context.Context, pass *history.Pass) {
	if m.config.History == nil {
		return
	}
	if err := m.config.History.Record(ctx, pass); err != nil {
		m.logger.WithError(err).Warn("failed to record migration history")
	}
}
