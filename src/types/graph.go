//go:generate go run go.uber.org/mock/mockgen -package migration -destination ../pkg/migration/mock_test.go github.com/xplane2blender/x2b-updater/src/types Graph,Record
package types

// Record 宿主数据图中的一条可变记录（场景、骨骼、对象或其子记录）
// 记录的创建与销毁完全由宿主负责，迁移过程只借用记录并原地修改字段。
type Record interface {
	// Name 返回记录名称，仅用于日志与错误信息
	Name() string
	// Get 读取字段，字段不存在时 ok 为 false
	Get(key string) (value any, ok bool)
	// Set 写入字段
	Set(key string, value any)
	// List 返回挂在 key 下的子记录列表（导出层、dataref 等），不存在时返回 nil
	List(key string) []Record
	// Sub 返回挂在 key 下的单个子记录（如 manip），不存在时返回 nil
	Sub(key string) Record
}

// Graph 宿主数据图的枚举能力
type Graph interface {
	// FilePath 返回数据所在的文件路径，从未保存过的新文件返回空字符串
	FilePath() string
	// Scenes 返回全部场景，第一个场景为主场景
	Scenes() []Record
	// Bones 返回所有骨架中的全部骨骼
	Bones() []Record
	// Objects 返回全部对象
	Objects() []Record
}
