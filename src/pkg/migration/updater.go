package migration

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

// StampKey 主场景上保存文件版本的字段
const StampKey = "schema_version"

var (
	// legacyMissingStamp 主场景上没有版本字段时视为 3.2.0
	legacyMissingStamp = version.MustParse("3.2.0")
	// legacyEmptyStamp 版本字段为空字符串时视为 3.3.0。
	// 这是历史遗留的取值，原作者也没有说明原因，不代表推断出的真实版本。
	legacyEmptyStamp = version.MustParse("3.3.0")
)

// Updater 负责读取和写入文件版本戳，并在加载旧文件时调用迁移驱动
type Updater struct {
	current version.Version
	driver  *Driver
	logger  *logrus.Entry
}

// NewUpdater 创建版本戳生命周期，driver 为 nil 时使用内置步骤链
func NewUpdater(current version.Version, driver *Driver) *Updater {
	if driver == nil {
		driver = NewDriver(nil)
	}
	return &Updater{
		current: current,
		driver:  driver,
		logger: logrus.WithFields(logrus.Fields{
			"component":       "updater",
			"current_version": current.String(),
		}),
	}
}

// Current 返回当前工具版本
func (u *Updater) Current() version.Version {
	return u.current
}

// ResolveStamp 把保存的版本戳解析为版本，present 表示字段是否存在
// 字段缺失与空字符串分别使用各自的历史缺省值，都不视为错误
func ResolveStamp(raw any, present bool) (version.Version, error) {
	if !present || raw == nil {
		return legacyMissingStamp, nil
	}
	s, ok := raw.(string)
	if !ok {
		return version.Version{}, fmt.Errorf("%w: %s has unexpected type %T", version.ErrInvalidVersionFormat, StampKey, raw)
	}
	if s == "" {
		return legacyEmptyStamp, nil
	}
	return version.Parse(s)
}

// FileVersion 读取主场景上的版本戳
func (u *Updater) FileVersion(g types.Graph) (version.Version, error) {
	scene, err := primaryScene(g)
	if err != nil {
		return version.Version{}, err
	}
	raw, ok := scene.Get(StampKey)
	return ResolveStamp(raw, ok)
}

// NeedsMigration 报告版本 from 的文件是否需要迁移
func (u *Updater) NeedsMigration(from version.Version) bool {
	return from.Less(u.current)
}

// Plan 返回版本 from 的文件加载时将要执行的步骤
func (u *Updater) Plan(from version.Version) []*Step {
	if !u.NeedsMigration(from) {
		return nil
	}
	return u.driver.Registry().Pending(from)
}

// OnLoad 在宿主加载文件后调用
//
// filePath 为空表示从未保存过的新文件，此时不做任何事并返回 nil。
// 文件版本早于当前版本时执行迁移并写入当前版本；版本无法解析时不做任何修改并返回错误。
func (u *Updater) OnLoad(filePath string, g types.Graph) (*MigrationResult, error) {
	if filePath == "" {
		return nil, nil
	}

	from, err := u.FileVersion(g)
	if err != nil {
		u.logger.WithError(err).WithField("file", filePath).Error("cannot determine file version, migration aborted")
		return nil, fmt.Errorf("cannot determine version of %s: %w", filePath, err)
	}

	if !u.NeedsMigration(from) {
		if u.current.Less(from) {
			u.logger.WithFields(logrus.Fields{
				"file":         filePath,
				"file_version": from.String(),
			}).Warn("file was written by a newer version")
		}
		return &MigrationResult{FromVersion: from, ToVersion: from}, nil
	}

	u.logger.WithFields(logrus.Fields{
		"file":         filePath,
		"file_version": from.String(),
	}).Infof("file was created with version %s or older and will now be updated to %s", from, u.current)

	res, err := u.driver.Run(from, g)
	if err != nil {
		return res, err
	}
	if err := u.stamp(g); err != nil {
		return res, err
	}
	res.Migrated = true
	res.ToVersion = u.current

	u.logger.WithFields(logrus.Fields{
		"file":    filePath,
		"steps":   res.Steps,
		"scenes":  res.Scenes,
		"bones":   res.Bones,
		"objects": res.Objects,
	}).Infof("file was successfully updated to %s", u.current)
	return res, nil
}

// OnSave 在宿主保存文件前调用，无条件写入当前版本
func (u *Updater) OnSave(g types.Graph) error {
	return u.stamp(g)
}

func (u *Updater) stamp(g types.Graph) error {
	scene, err := primaryScene(g)
	if err != nil {
		return err
	}
	scene.Set(StampKey, u.current.String())
	return nil
}

func primaryScene(g types.Graph) (types.Record, error) {
	scenes := g.Scenes()
	if len(scenes) == 0 || scenes[0] == nil {
		return nil, ErrNoPrimaryScene
	}
	return scenes[0], nil
}
