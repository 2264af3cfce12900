package migration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/xplane2blender/x2b-updater/src/pkg/document"
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

const legacyDoc = `{
  "scenes": [
    {
      "name": "Scene",
      "schema_version": "3.2.0",
      "compositeTextures": true,
      "layers": [{"name": "Layer 1", "cockpit": true, "autodetectTextures": true}]
    }
  ],
  "armatures": [
    {"name": "Armature", "bones": [
      {"name": "Bone", "datarefs": [{"path": "sim/a", "anim_type": 4}]}
    ]}
  ],
  "objects": [
    {"name": "Lever", "datarefs": [{"path": "sim/b", "anim_type": 1}, {"path": "sim/c"}], "manip": {"type": 5}},
    {"name": "Broken", "datarefs": [{"path": "sim/d", "anim_type": 3}], "manip": {"type": 16}},
    {"name": "Plain"}
  ]
}`

func decodeLegacy(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(legacyDoc), document.FormatJSON)
	require.NoError(t, err)
	return doc
}

func node(t *testing.T, r types.Record) document.Node {
	t.Helper()
	n, ok := r.(document.Node)
	require.True(t, ok)
	return n
}

func TestDriver_RunAllSteps(t *testing.T) {
	doc := decodeLegacy(t)
	res, err := NewDriver(nil).Run(version.MustParse("3.2.0"), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"export-layers", "anim-and-manip-types"}, res.Steps)
	assert.Equal(t, 1, res.Scenes)
	assert.Equal(t, 1, res.Bones)
	assert.Equal(t, 2, res.Objects)

	scene := node(t, doc.Scenes()[0])
	assert.Equal(t, false, scene[KeyCompositeTextures])
	layer := scene.List(KeyLayers)[0]
	exportType, _ := layer.Get(KeyExportType)
	assert.Equal(t, "cockpit", exportType)
	autodetect, _ := layer.Get(KeyAutodetectTextures)
	assert.Equal(t, false, autodetect)

	bone := node(t, doc.Bones()[0])
	assert.Equal(t, []any{"hide"}, datarefAnimTypes(bone))

	lever := node(t, doc.Objects()[0])
	assert.Equal(t, []any{"transform", "transform"}, datarefAnimTypes(lever))
	assert.Equal(t, "radio", lever.Sub(KeyManip).(document.Node)[KeyManipType1050])

	// 损坏的对象整体跳过，anim_type 也保持原样
	broken := node(t, doc.Objects()[1])
	refs := broken.List(KeyDatarefs)
	raw, _ := refs[0].Get(KeyAnimType)
	assert.Equal(t, json.Number("3"), raw)
	assert.NotContains(t, broken.Sub(KeyManip).(document.Node), KeyManipType1050)

	corrupt := res.CorruptRecords()
	require.Len(t, corrupt, 1)
	assert.ErrorIs(t, corrupt[0], ErrCorruptLegacyData)
	assert.Contains(t, corrupt[0].Error(), "Broken")
}

func TestDriver_Run33SkipsLayerStep(t *testing.T) {
	doc := decodeLegacy(t)
	res, err := NewDriver(nil).Run(version.MustParse("3.3.0"), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"export-layers", "anim-and-manip-types"}, res.Steps)

	doc = decodeLegacy(t)
	res, err = NewDriver(nil).Run(version.MustParse("3.3.1"), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"anim-and-manip-types"}, res.Steps)
	assert.Zero(t, res.Scenes)
	// 场景未被改写
	assert.Equal(t, true, node(t, doc.Scenes()[0])[KeyCompositeTextures])
}

func TestDriver_RunNothingPending(t *testing.T) {
	doc := decodeLegacy(t)
	res, err := NewDriver(nil).Run(version.MustParse("3.4.1"), doc)
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	assert.Nil(t, res.Corrupt)
	assert.Equal(t, true, node(t, doc.Scenes()[0])[KeyCompositeTextures])
}

func TestDriver_CustomRegistryOrder(t *testing.T) {
	var order []string
	step := func(name, threshold string) *Step {
		return &Step{
			Threshold: version.MustParse(threshold),
			Name:      name,
			Apply:     func(types.Graph, *MigrationResult) { order = append(order, name) },
		}
	}
	registry, err := NewStepRegistry(step("first", "3.9.0"), step("second", "3.10.0"))
	require.NoError(t, err)

	res, err := NewDriver(registry).Run(version.MustParse("3.2.0"), document.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, order, res.Steps)
}

func TestDriver_PanicBecomesError(t *testing.T) {
	registry, err := NewStepRegistry(&Step{
		Threshold: version.MustParse("3.4.0"),
		Name:      "boom",
		Apply:     func(types.Graph, *MigrationResult) { panic("host graph went away") },
	})
	require.NoError(t, err)

	_, err = NewDriver(registry).Run(version.MustParse("3.2.0"), document.New())
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.Contains(t, err.Error(), "host graph went away")
}

func TestMigrationResult_CorruptRecords(t *testing.T) {
	res := &MigrationResult{}
	assert.Empty(t, res.CorruptRecords())
	res.skipped(RecordKindBone, ErrCorruptLegacyData)
	res.skipped(RecordKindObject, ErrCorruptLegacyData)
	assert.Len(t, res.CorruptRecords(), 2)
	assert.Len(t, multierr.Errors(res.Corrupt), 2)
}
