package migration

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xplane2blender/x2b-updater/src/metrics"
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

// Driver 按版本阈值依次执行迁移步骤
type Driver struct {
	registry *StepRegistry
	logger   *logrus.Entry
}

// NewDriver 创建迁移驱动，registry 为 nil 时使用内置步骤链
func NewDriver(registry *StepRegistry) *Driver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Driver{
		registry: registry,
		logger:   logrus.WithField("component", "migration_driver"),
	}
}

// Registry 返回驱动使用的步骤链
func (d *Driver) Registry() *StepRegistry {
	return d.registry
}

// Run 对数据图执行所有满足 from <= 阈值 的步骤
//
// 单条记录的旧数据损坏不会中断迁移，而是汇总在结果的 Corrupt 中并在结束时统一报告。
// 宿主数据图访问时发生的 panic 转换为 ErrMigrationFailed 返回。
func (d *Driver) Run(from version.Version, g types.Graph) (res *MigrationResult, err error) {
	res = &MigrationResult{FromVersion: from}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrMigrationFailed, p)
		}
	}()

	for _, step := range d.registry.Pending(from) {
		d.logger.WithFields(logrus.Fields{
			"step":      step.Name,
			"threshold": step.Threshold.String(),
		}).Debug("applying migration step")
		step.Apply(g, res)
		res.Steps = append(res.Steps, step.Name)
		metrics.StepsApplied.WithLabelValues(step.Name).Inc()
	}

	if res.Corrupt != nil {
		corrupt := res.CorruptRecords()
		fields := logrus.Fields{
			"from_version":    from.String(),
			"corrupt_records": len(corrupt),
		}
		for i, e := range corrupt {
			d.logger.WithFields(fields).WithField("index", i).Debug(e.Error())
		}
		d.logger.WithFields(fields).WithError(res.Corrupt).Warn("skipped records with corrupt legacy data")
	}
	return res, nil
}
