// Package metrics 迁移过程的 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "x2b_updater"

var (
	// RecordsMigrated 成功迁移的记录数，按记录类型区分
	RecordsMigrated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_migrated_total",
		Help:      "Number of records rewritten by a migration step.",
	}, []string{"kind"})

	// RecordsSkipped 因旧数据损坏而跳过的记录数
	RecordsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Number of records skipped because their legacy data is corrupt.",
	}, []string{"kind"})

	// StepsApplied 执行过的迁移步骤
	StepsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "steps_applied_total",
		Help:      "Number of times each migration step ran.",
	}, []string{"step"})

	// DocumentsProcessed 处理过的文档，result 为 migrated/up_to_date/failed
	DocumentsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_processed_total",
		Help:      "Number of documents processed, by outcome.",
	}, []string{"result"})
)

// Registry 本程序的指标注册表
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(RecordsMigrated, RecordsSkipped, StepsApplied, DocumentsProcessed)
}

// WriteToTextfile 以 node_exporter textfile 格式写出全部指标
func WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
