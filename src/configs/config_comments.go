package configs

import "gopkg.in/yaml.v3"

// DecorateConfigNode 将硬编码的中文注释注入到配置节点树中。
func DecorateConfigNode(node *yaml.Node) {
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}

	root.HeadComment = `# 这个配置文件内的注释是自动生成的，请不要手动修改。
# 需要修改注释时，请在 src/configs/config_comments.go 文件内修改。`

	setFieldLineComment(root, "debug", "# 输出调试日志")
	setFieldComment(root, "current_version",
		`# 迁移目标版本，格式为 主.次.修订，例如 3.4.0
# 留空时使用程序自身的版本`, "")

	if logNode := findNode(root, "log"); logNode != nil {
		setFieldLineComment(logNode, "out_put_folder", "# 日志文件所在目录")
		setFieldLineComment(logNode, "save_every_log", "# 为 true 时每次运行单独保存一个日志文件")
	}

	if backupNode := findNode(root, "backup"); backupNode != nil {
		setFieldHeadComment(backupNode, "enable",
			`# 改写文件前在同目录下生成 <文件名>.pre-<旧版本>.<时间>.bak
# 迁移或保存失败时会用它还原`)
	}

	if historyNode := findNode(root, "history"); historyNode != nil {
		setFieldLineComment(historyNode, "db_path", "# 相对路径以本配置文件所在目录为基准")
	}

	if metricsNode := findNode(root, "metrics"); metricsNode != nil {
		setFieldLineComment(metricsNode, "textfile", "# 留空则不导出")
	}

	if batchNode := findNode(root, "batch"); batchNode != nil {
		setFieldComment(batchNode, "parallel",
			`# 同时迁移的文件数
# 同一个文件始终只由一个协程处理`, "")
	}

	if sentryNode := findNode(root, "sentry"); sentryNode != nil {
		setFieldLineComment(sentryNode, "dsn", "# 也可以通过环境变量 SENTRY_DSN 设置，留空则不上报")
	}
}

func findNode(mapNode *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			return mapNode.Content[i+1]
		}
	}
	return nil
}

func setFieldComment(mapNode *yaml.Node, key, headComment, lineComment string) {
	for i := 0; i < len(mapNode.Content); i += 2 {
		k := mapNode.Content[i]
		if k.Value == key {
			if headComment != "" {
				k.HeadComment = headComment
			}
			if lineComment != "" {
				k.LineComment = lineComment
			}
			return
		}
	}
}

func setFieldLineComment(mapNode *yaml.Node, key, lineComment string) {
	for i := 0; i < len(mapNode.Content); i += 2 {
		k := mapNode.Content[i]
		if k.Value == key {
			k.LineComment = lineComment
			return
		}
	}
}

func setFieldHeadComment(mapNode *yaml.Node, key, headComment string) {
	for i := 0; i < len(mapNode.Content); i += 2 {
		k := mapNode.Content[i]
		if k.Value == key {
			k.HeadComment = headComment
			return
		}
	}
}
