package types

// AnimType dataref 动画类型标签
type AnimType string

const (
	AnimTypeTransform AnimType = "transform"
	// AnimTypeTranslate 3.4.0 起已并入 AnimTypeTransform，仅历史表使用
	AnimTypeTranslate AnimType = "translate"
	// AnimTypeRotate 3.4.0 起已并入 AnimTypeTransform，仅历史表使用
	AnimTypeRotate AnimType = "rotate"
	AnimTypeShow   AnimType = "show"
	AnimTypeHide   AnimType = "hide"
)

// IsValid 检查是否为当前版本可用的动画类型
func (a AnimType) IsValid() bool {
	switch a {
	case AnimTypeTransform, AnimTypeShow, AnimTypeHide:
		return true
	default:
		return false
	}
}

func (a AnimType) String() string {
	return string(a)
}

// ManipType 操纵器类型标签
type ManipType string

const (
	ManipDragXY                 ManipType = "drag_xy"
	ManipDragAxis               ManipType = "drag_axis"
	ManipCommand                ManipType = "command"
	ManipCommandAxis            ManipType = "command_axis"
	ManipPush                   ManipType = "push"
	ManipRadio                  ManipType = "radio"
	ManipDelta                  ManipType = "delta"
	ManipWrap                   ManipType = "wrap"
	ManipToggle                 ManipType = "toggle"
	ManipNoop                   ManipType = "noop"
	ManipDragAxisPix            ManipType = "drag_axis_pix"
	ManipCommandKnob            ManipType = "command_knob"
	ManipCommandSwitchUpDown    ManipType = "command_switch_up_down"
	ManipCommandSwitchLeftRight ManipType = "command_switch_left_right"
	ManipAxisSwitchUpDown       ManipType = "axis_switch_up_down"
	ManipAxisSwitchLeftRight    ManipType = "axis_switch_left_right"
)

func (m ManipType) String() string {
	return string(m)
}

// ExportType 导出层的导出类型
type ExportType string

const (
	ExportTypeAircraft ExportType = "aircraft"
	ExportTypeCockpit  ExportType = "cockpit"
)

func (e ExportType) String() string {
	return string(e)
}
