// Package migration 把旧版本 XPlane2Blender 保存的场景数据升级为当前结构
//
// 文件的主场景上保存着写入它的工具版本（schema_version）。加载文件时，
// Updater 读取该版本，早于当前版本则由 Driver 依次执行所有阈值不低于文件版本的步骤，
// 最后写入当前版本；保存文件时无条件写入当前版本。
//
// 内置步骤：
//
//  1. 3.3.0 export-layers：关闭合成纹理与自动纹理检测，由旧的 cockpit 标记得到 export_type
//  2. 3.4.0 anim-and-manip-types：按历史枚举表重新映射 dataref 的 anim_type，
//     并把 manip.type 的序号还原为名称写入 manip.type_1050
//
// 旧数据损坏的记录会被跳过并在迁移结束时统一报告，不会中断整个迁移。
// 同一对象的 anim 与 manip 迁移作为整体写入。
//
// 在宿主之外处理文档文件时，Migrator 负责锁、备份、保存与回滚：
//
//	result, err := migration.MigrateDocument(ctx, &migration.MigrationConfig{
//	    DocPath: "/path/to/plane.json",
//	    Backup:  true,
//	})
//
// 批量迁移示例：
//
//	batcher := migration.NewBatchMigrator()
//	batcher.Add(&migration.MigrationConfig{DocPath: "/path/to/a.json", Backup: true})
//	batcher.Add(&migration.MigrationConfig{DocPath: "/path/to/b.yml", Backup: true})
//	result := batcher.Run(ctx, 4) // 最多同时处理 4 个文档
package migration
