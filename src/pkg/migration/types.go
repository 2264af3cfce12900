package migration

import (
	"go.uber.org/multierr"

	"github.com/xplane2blender/x2b-updater/src/metrics"
	"github.com/xplane2blender/x2b-updater/src/pkg/history"
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

// RecordKind 记录所在的集合
type RecordKind string

const (
	RecordKindScene  RecordKind = "scene"
	RecordKindBone   RecordKind = "bone"
	RecordKindObject RecordKind = "object"
)

// Step 一个按版本阈值触发的迁移步骤
// 文件记录的版本早于或等于 Threshold 时执行
type Step struct {
	// Threshold 版本阈值
	Threshold version.Version
	// Name 步骤标识，用于日志和历史记录
	Name string
	// Description 步骤说明
	Description string
	// Apply 对整个数据图执行迁移，逐条记录的失败写入 res
	Apply func(g types.Graph, res *MigrationResult)
}

// MigrationResult 一次迁移的结果
type MigrationResult struct {
	// Migrated 是否执行了迁移
	Migrated bool
	// FromVersion 文件原先记录的版本（已应用历史缺省值）
	FromVersion version.Version
	// ToVersion 迁移后写入的版本
	ToVersion version.Version
	// Steps 已执行的步骤名称，按执行顺序
	Steps []string
	// Scenes/Bones/Objects 成功迁移的记录数
	Scenes  int
	Bones   int
	Objects int
	// Corrupt 因旧数据损坏而跳过的记录，使用 multierr 聚合
	Corrupt error
	// BackupPath 文档备份路径（如果有）
	BackupPath string
}

// CorruptRecords 返回被跳过记录的错误列表
func (r *MigrationResult) CorruptRecords() []error {
	return multierr.Errors(r.Corrupt)
}

func (r *MigrationResult) migrated(kind RecordKind) {
	switch kind {
	case RecordKindScene:
		r.Scenes++
	case RecordKindBone:
		r.Bones++
	case RecordKindObject:
		r.Objects++
	}
	metrics.RecordsMigrated.WithLabelValues(string(kind)).Inc()
}

func (r *MigrationResult) skipped(kind RecordKind, err error) {
	r.Corrupt = multierr.Append(r.Corrupt, err)
	metrics.RecordsSkipped.WithLabelValues(string(kind)).Inc()
}

// MigrationConfig 单个文档的迁移配置
type MigrationConfig struct {
	// DocPath 文档路径
	DocPath string
	// Updater 版本戳生命周期，为 nil 时使用当前工具版本创建
	Updater *Updater
	// Backup 迁移前是否备份文档
	Backup bool
	// History 可选的迁移历史存储
	History *history.Store
}

// LockInfo 锁文件信息
type LockInfo struct {
	// DocPath 正在迁移的文档路径
	DocPath string `json:"doc_path"`
	// BackupPath 备份文件路径
	BackupPath string `json:"backup_path"`
	// StartTime 迁移开始时间
	StartTime string `json:"start_time"`
	// FromVersion 迁移前版本
	FromVersion string `json:"from_version"`
	// TargetVersion 目标版本
	TargetVersion string `json:"target_version"`
	// PID 进程ID
	PID int `json:"pid"`
}
