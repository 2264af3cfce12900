package migration

import (
	"fmt"
	"slices"

	"github.com/xplane2blender/x2b-updater/src/types"
)

// 旧文件中保存的是枚举值在当时枚举列表中的序号，而不是名称。
// 序号的含义只能通过当时的列表还原，因此每个历史时期的列表都原样保存在这里。
// 不同时期的表使用各自的类型，表在定义后不再修改。

// pre34AnimTable 3.4.0 之前的 anim_type 顺序
type pre34AnimTable []types.AnimType

// post34AnimTable 3.4.0 起的 anim_type 顺序
type post34AnimTable []types.AnimType

// pre34ManipTable 3.4.0 之前的 manip.type 顺序
type pre34ManipTable []types.ManipType

var pre34AnimTypes = pre34AnimTable{
	types.AnimTypeTransform,
	types.AnimTypeTranslate,
	types.AnimTypeRotate,
	types.AnimTypeShow,
	types.AnimTypeHide,
}

var post34AnimTypes = post34AnimTable{
	types.AnimTypeTransform,
	types.AnimTypeShow,
	types.AnimTypeHide,
}

var pre34ManipTypes = pre34ManipTable{
	types.ManipDragXY,
	types.ManipDragAxis,
	types.ManipCommand,
	types.ManipCommandAxis,
	types.ManipPush,
	types.ManipRadio,
	types.ManipDelta,
	types.ManipWrap,
	types.ManipToggle,
	types.ManipNoop,
	types.ManipDragAxisPix,
	types.ManipCommandKnob,
	types.ManipCommandSwitchUpDown,
	types.ManipCommandSwitchLeftRight,
	types.ManipAxisSwitchUpDown,
	types.ManipAxisSwitchLeftRight,
}

// lookup 按序号取值，越界说明旧数据已损坏，不做截断
func lookup[T any](table string, values []T, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(values) {
		return zero, fmt.Errorf("%w: %s ordinal %d out of range [0, %d)", ErrCorruptLegacyData, table, i, len(values))
	}
	return values[i], nil
}

func (t pre34AnimTable) At(i int) (types.AnimType, error) {
	return lookup("pre-3.4 anim_type", t, i)
}

func (t pre34AnimTable) Index(tag types.AnimType) int {
	return slices.Index(t, tag)
}

func (t post34AnimTable) At(i int) (types.AnimType, error) {
	return lookup("post-3.4 anim_type", t, i)
}

func (t pre34ManipTable) At(i int) (types.ManipType, error) {
	return lookup("pre-3.4 manip type", t, i)
}

// Pre34AnimTypes 返回 3.4.0 之前 anim_type 顺序的副本
func Pre34AnimTypes() []types.AnimType {
	return slices.Clone(pre34AnimTypes)
}

// Post34AnimTypes 返回 3.4.0 起 anim_type 顺序的副本
func Post34AnimTypes() []types.AnimType {
	return slices.Clone(post34AnimTypes)
}

// Pre34ManipTypes 返回 3.4.0 之前 manip.type 顺序的副本
func Pre34ManipTypes() []types.ManipType {
	return slices.Clone(pre34ManipTypes)
}
