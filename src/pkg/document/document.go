// Package document 提供以 JSON 或 YAML 保存的 blend 数据文档，作为迁移的宿主数据图
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/xplane2blender/x2b-updater/src/types"
)

var (
	// ErrNoPath 文档从未保存过，没有路径
	ErrNoPath = errors.New("document has no file path")
	// ErrUnknownFormat 无法根据扩展名判断文档格式
	ErrUnknownFormat = errors.New("unknown document format")
	// ErrNoScenes 文档中没有场景
	ErrNoScenes = errors.New("document has no scenes")
)

// Format 文档格式
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatFromPath 根据扩展名判断格式
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Armature 骨架
type Armature struct {
	Name  string `json:"name" yaml:"name"`
	Bones []Node `json:"bones" yaml:"bones"`
}

// Document blend 数据文档
type Document struct {
	SceneNodes  []Node      `json:"scenes" yaml:"scenes"`
	Armatures   []*Armature `json:"armatures,omitempty" yaml:"armatures,omitempty"`
	ObjectNodes []Node      `json:"objects,omitempty" yaml:"objects,omitempty"`

	path string
}

var _ types.Graph = (*Document)(nil)

// New 创建一个从未保存过的文档，包含一个空的主场景
func New() *Document {
	return &Document{
		SceneNodes: []Node{{NameKey: "Scene"}},
	}
}

// Load 读取文档
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	doc.path = path
	return doc, nil
}

// Decode 解析文档内容，得到的文档没有路径
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		// 保留整数，旧数据中的序号不能经过 float64
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Encode 按指定格式序列化文档
func (d *Document) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(d.yamlView()); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// yamlView 把 JSON 读入的 json.Number 还原为数值，否则 YAML 会把它们写成字符串
func (d *Document) yamlView() *Document {
	view := &Document{
		SceneNodes:  normalizeNodes(d.SceneNodes),
		ObjectNodes: normalizeNodes(d.ObjectNodes),
	}
	for _, arm := range d.Armatures {
		if arm == nil {
			continue
		}
		view.Armatures = append(view.Armatures, &Armature{Name: arm.Name, Bones: normalizeNodes(arm.Bones)})
	}
	return view
}

func normalizeNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		if n != nil {
			out[i] = normalizeValue(map[string]any(n)).(map[string]any)
		}
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case Node:
		return normalizeValue(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// FilePath 返回文档路径，新文档返回空字符串
func (d *Document) FilePath() string {
	return d.path
}

// Save 写回文档原路径
func (d *Document) Save() error {
	if d.path == "" {
		return ErrNoPath
	}
	return d.SaveAs(d.path)
}

// SaveAs 按扩展名对应的格式写入 path，并将其作为文档路径
func (d *Document) SaveAs(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := d.Encode(format)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	d.path = path
	return nil
}

// Scenes 返回全部场景，第一个为主场景
func (d *Document) Scenes() []types.Record {
	return toRecords(d.SceneNodes)
}

// Bones 返回所有骨架中的全部骨骼
func (d *Document) Bones() []types.Record {
	var bones []types.Record
	for _, arm := range d.Armatures {
		if arm == nil {
			continue
		}
		bones = append(bones, toRecords(arm.Bones)...)
	}
	return bones
}

// Objects 返回全部对象
func (d *Document) Objects() []types.Record {
	return toRecords(d.ObjectNodes)
}

// PeekVersion 只读取主场景上的版本戳而不解析整个文档
// present 表示字段是否存在；文档没有场景时返回 ErrNoScenes
func PeekVersion(path, key string) (raw any, present bool, err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document: %w", err)
	}

	if format == FormatJSON {
		if !gjson.ValidBytes(data) {
			return nil, false, fmt.Errorf("failed to decode %s: invalid json", path)
		}
		if !gjson.GetBytes(data, "scenes.0").IsObject() {
			return nil, false, ErrNoScenes
		}
		stamp := gjson.GetBytes(data, "scenes.0."+gjsonEscape(key))
		if !stamp.Exists() {
			return nil, false, nil
		}
		return stamp.Value(), true, nil
	}

	var head struct {
		Scenes []map[string]any `yaml:"scenes"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(head.Scenes) == 0 || head.Scenes[0] == nil {
		return nil, false, ErrNoScenes
	}
	raw, present = head.Scenes[0][key]
	return raw, present, nil
}

// gjsonEscape 转义 gjson 路径中的特殊字符
func gjsonEscape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
