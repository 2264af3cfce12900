package document

import (
	"github.com/xplane2blender/x2b-updater/src/types"
)

// Node 文档中的一条记录，字段以键值形式保存
//
// 值为对象列表的字段通过 List 访问（导出层、dataref），
// 值为单个对象的字段通过 Sub 访问（manip）。
type Node map[string]any

var _ types.Record = Node(nil)

// NameKey 记录名称字段
const NameKey = "name"

func (n Node) Name() string {
	if s, ok := n[NameKey].(string); ok {
		return s
	}
	return ""
}

func (n Node) Get(key string) (any, bool) {
	v, ok := n[key]
	return v, ok
}

func (n Node) Set(key string, value any) {
	n[key] = value
}

func (n Node) List(key string) []types.Record {
	var records []types.Record
	switch l := n[key].(type) {
	case []any:
		for _, e := range l {
			if node, ok := asNode(e); ok {
				records = append(records, node)
			}
		}
	case []Node:
		for _, node := range l {
			if node != nil {
				records = append(records, node)
			}
		}
	case []map[string]any:
		for _, m := range l {
			if m != nil {
				records = append(records, Node(m))
			}
		}
	}
	return records
}

func (n Node) Sub(key string) types.Record {
	node, ok := asNode(n[key])
	if !ok {
		return nil
	}
	return node
}

func asNode(v any) (Node, bool) {
	switch m := v.(type) {
	case Node:
		return m, m != nil
	case map[string]any:
		return Node(m), m != nil
	default:
		return nil, false
	}
}

func toRecords(nodes []Node) []types.Record {
	records := make([]types.Record, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			records = append(records, node)
		}
	}
	return records
}
