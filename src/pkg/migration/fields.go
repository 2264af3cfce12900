package migration

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/xplane2blender/x2b-updater/src/types"
)

// 宿主记录上的字段名
const (
	KeyCompositeTextures  = "compositeTextures"
	KeyLayers             = "layers"
	KeyAutodetectTextures = "autodetectTextures"
	KeyCockpit            = "cockpit"
	KeyExportType         = "export_type"
	KeyDatarefs           = "datarefs"
	KeyAnimType           = "anim_type"
	KeyManip              = "manip"
	KeyManipType          = "type"
	KeyManipType1050      = "type_1050"
)

// FieldWrite 一次待执行的字段写入
type FieldWrite struct {
	Target types.Record
	Key    string
	Value  any
}

// Patch 字段迁移函数的输出。迁移函数只读取记录并生成 Patch，
// 由调用方决定是否写入，因此一条记录要么全部更新，要么完全不变。
type Patch []FieldWrite

// Apply 按顺序执行所有写入
func (p Patch) Apply() {
	for _, w := range p {
		w.Target.Set(w.Key, w.Value)
	}
}

// MigrateAnimType 重映射记录上每个 dataref 的 anim_type
//
// 3.4.0 把 TRANSFORM、TRANSLATE、ROTATE 合并为 TRANSFORM，并删除了两个枚举值，
// 因此旧序号小于 SHOW 的位置时映射到 TRANSFORM，否则整体前移被删除的个数。
// 未保存的 anim_type 按序号 0 处理。
func MigrateAnimType(r types.Record) (Patch, error) {
	showIndex := pre34AnimTypes.Index(types.AnimTypeShow)
	removed := len(pre34AnimTypes) - len(post34AnimTypes)

	datarefs := r.List(KeyDatarefs)
	patch := make(Patch, 0, len(datarefs))
	for i, d := range datarefs {
		old, err := storedOrdinal(d, KeyAnimType)
		if err != nil {
			return nil, fmt.Errorf("%s: dataref %d: %w", r.Name(), i, err)
		}
		if _, err := pre34AnimTypes.At(old); err != nil {
			return nil, fmt.Errorf("%s: dataref %d: %w", r.Name(), i, err)
		}
		idx := 0
		if old >= showIndex {
			idx = old - removed
		}
		tag, err := post34AnimTypes.At(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: dataref %d: %w", r.Name(), i, err)
		}
		patch = append(patch, FieldWrite{Target: d, Key: KeyAnimType, Value: tag.String()})
	}
	return patch, nil
}

// MigrateManipType 把 manip.type 的旧序号解析为标签并写入 manip.type_1050
//
// 新字段只是新增，因此不做序号偏移。未保存的 type 表示第一个枚举值 DRAG_XY，
// 而不是"未设置"：旧版本中 drag_xy 的存储值就是缺省值。
// 没有 manip 子记录的对象返回空 Patch。
func MigrateManipType(r types.Record) (Patch, error) {
	manip := r.Sub(KeyManip)
	if manip == nil {
		return nil, nil
	}
	old, err := storedOrdinal(manip, KeyManipType)
	if err != nil {
		return nil, fmt.Errorf("%s: manip: %w", r.Name(), err)
	}
	tag, err := pre34ManipTypes.At(old)
	if err != nil {
		return nil, fmt.Errorf("%s: manip: %w", r.Name(), err)
	}
	return Patch{{Target: manip, Key: KeyManipType1050, Value: tag.String()}}, nil
}

// MigrateExportLayers 关闭场景的 compositeTextures，并为每个导出层关闭
// autodetectTextures、根据旧的 cockpit 开关设置 export_type
//
// TODO: 导出类型目前只区分 cockpit 与 aircraft，尚不清楚是否有用户用旧版本导出过场景对象
func MigrateExportLayers(scene types.Record) Patch {
	layers := scene.List(KeyLayers)
	patch := make(Patch, 0, 1+2*len(layers))
	patch = append(patch, FieldWrite{Target: scene, Key: KeyCompositeTextures, Value: false})
	for _, layer := range layers {
		exportType := types.ExportTypeAircraft
		if storedBool(layer, KeyCockpit) {
			exportType = types.ExportTypeCockpit
		}
		patch = append(patch,
			FieldWrite{Target: layer, Key: KeyAutodetectTextures, Value: false},
			FieldWrite{Target: layer, Key: KeyExportType, Value: exportType.String()},
		)
	}
	return patch
}

// storedOrdinal 读取以序号形式保存的旧枚举值，未保存时返回 0
func storedOrdinal(r types.Record, key string) (int, error) {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return intFromInt64(key, n)
	case uint:
		return intFromUint64(key, uint64(n))
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return intFromUint64(key, uint64(n))
	case uint64:
		return intFromUint64(key, n)
	case float32:
		return intFromFloat(key, float64(n))
	case float64:
		return intFromFloat(key, n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrCorruptLegacyData, key, n.String())
		}
		return intFromInt64(key, i)
	default:
		return 0, fmt.Errorf("%w: %s has unexpected type %T", ErrCorruptLegacyData, key, v)
	}
}

func intFromInt64(key string, n int64) (int, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s ordinal %d out of range", ErrCorruptLegacyData, key, n)
	}
	return int(n), nil
}

func intFromUint64(key string, n uint64) (int, error) {
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s ordinal %d out of range", ErrCorruptLegacyData, key, n)
	}
	return int(n), nil
}

func intFromFloat(key string, f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s is not an integer: %v", ErrCorruptLegacyData, key, f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s ordinal %v out of range", ErrCorruptLegacyData, key, f)
	}
	return int(f), nil
}

// storedBool 读取布尔开关，旧文件中可能以 0/1 保存
func storedBool(r types.Record, key string) bool {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
