package migration

import (
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

// defaultSteps 内置迁移步骤，新的阈值追加在末尾
func defaultSteps() []*Step {
	return []*Step{
		{
			Threshold:   version.MustParse("3.3.0"),
			Name:        "export-layers",
			Description: "disable composite/autodetect textures, derive export_type from the cockpit flag",
			Apply:       upgradeExportLayers,
		},
		{
			Threshold:   version.MustParse("3.4.0"),
			Name:        "anim-and-manip-types",
			Description: "remap dataref anim_type ordinals and copy manip type into type_1050",
			Apply:       upgradeAnimAndManipTypes,
		},
	}
}

func upgradeExportLayers(g types.Graph, res *MigrationResult) {
	for _, scene := range g.Scenes() {
		MigrateExportLayers(scene).Apply()
		res.migrated(RecordKindScene)
	}
}

// upgradeAnimAndManipTypes 骨骼只有 dataref 需要处理，对象还需要处理 manip
// 同一对象的两项迁移作为整体写入，任一失败则该对象保持不变
func upgradeAnimAndManipTypes(g types.Graph, res *MigrationResult) {
	for _, bone := range g.Bones() {
		patch, err := MigrateAnimType(bone)
		if err != nil {
			res.skipped(RecordKindBone, err)
			continue
		}
		patch.Apply()
		res.migrated(RecordKindBone)
	}

	for _, obj := range g.Objects() {
		anim, err := MigrateAnimType(obj)
		if err != nil {
			res.skipped(RecordKindObject, err)
			continue
		}
		manip, err := MigrateManipType(obj)
		if err != nil {
			res.skipped(RecordKindObject, err)
			continue
		}
		append(anim, manip...).Apply()
		res.migrated(RecordKindObject)
	}
}
