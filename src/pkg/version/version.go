// Package version 提供 XPlane2Blender 版本号（major.minor.patch 三元组）的解析与比较
//
// 所有比较都基于三元组进行，从不比较原始字符串，
// 否则 "3.10.0" 会被错误地排在 "3.9.0" 之前。
package version

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/bluele/gcache"
)

// ErrInvalidVersionFormat 版本字符串无法解析为三个非负整数
var ErrInvalidVersionFormat = errors.New("invalid version format")

// parseCacheSize 解析结果缓存容量
const parseCacheSize = 256

// parseCache 缓存已解析的版本字符串，批量迁移时同一版本号会被反复解析
var parseCache = gcache.New(parseCacheSize).LRU().Build()

// Version 版本三元组
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// New 由三个分量构造版本
func New(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse 解析形如 "3.4.0" 的版本字符串
// 只接受恰好三个以点分隔的非负整数，拒绝 "v" 前缀、预发布标识和构建元数据
func Parse(s string) (Version, error) {
	if cached, err := parseCache.Get(s); err == nil {
		return cached.(Version), nil
	}
	v, err := parse(s)
	if err != nil {
		return Version{}, err
	}
	_ = parseCache.Set(s, v)
	return v, nil
}

func parse(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionFormat, s, err)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q: pre-release and build metadata are not allowed", ErrInvalidVersionFormat, s)
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}

// MustParse 解析版本字符串，失败时 panic
// 仅用于常量与历史阈值的定义
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare 比较 a 与 b：a 较旧返回 -1，相等返回 0，a 较新返回 1
func Compare(a, b Version) int {
	switch {
	case a.Major != b.Major:
		return cmpUint(a.Major, b.Major)
	case a.Minor != b.Minor:
		return cmpUint(a.Minor, b.Minor)
	default:
		return cmpUint(a.Patch, b.Patch)
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare 与 b 比较，语义同包级 Compare
func (v Version) Compare(b Version) int {
	return Compare(v, b)
}

// Less 报告 v 是否早于 b
func (v Version) Less(b Version) bool {
	return Compare(v, b) < 0
}

// LessOrEqual 报告 v 是否早于或等于 b
func (v Version) LessOrEqual(b Version) bool {
	return Compare(v, b) <= 0
}

// Equal 报告 v 与 b 是否为同一版本
func (v Version) Equal(b Version) bool {
	return Compare(v, b) == 0
}

// IsZero 报告 v 是否为零值 0.0.0
func (v Version) IsZero() bool {
	return v == Version{}
}

// String 返回规范的点分形式
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
