package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/xplane2blender/x2b-updater/src/pkg/document"
	"github.com/xplane2blender/x2b-updater/src/pkg/version"
	"github.com/xplane2blender/x2b-updater/src/types"
)

var toolVersion = version.MustParse("3.4.0")

func TestResolveStamp(t *testing.T) {
	tests := []struct {
		raw     any
		present bool
		want    string
	}{
		{nil, false, "3.2.0"},
		{nil, true, "3.2.0"},
		{"", true, "3.3.0"},
		{"3.2.0", true, "3.2.0"},
		{"3.10.0", true, "3.10.0"},
	}
	for _, tt := range tests {
		v, err := ResolveStamp(tt.raw, tt.present)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.String())
	}

	for _, raw := range []any{"3.4", "three", 340, true} {
		_, err := ResolveStamp(raw, true)
		assert.ErrorIs(t, err, version.ErrInvalidVersionFormat, "stamp %v", raw)
	}
}

func TestUpdater_Plan(t *testing.T) {
	u := NewUpdater(toolVersion, nil)
	assert.Equal(t, toolVersion, u.Current())

	names := func(steps []*Step) (out []string) {
		for _, s := range steps {
			out = append(out, s.Name)
		}
		return
	}
	assert.Equal(t, []string{"export-layers", "anim-and-manip-types"}, names(u.Plan(version.MustParse("3.2.0"))))
	assert.Equal(t, []string{"anim-and-manip-types"}, names(u.Plan(version.MustParse("3.3.5"))))
	assert.Empty(t, u.Plan(toolVersion))
	assert.Empty(t, u.Plan(version.MustParse("3.10.0")))
	assert.True(t, u.NeedsMigration(version.MustParse("3.3.9")))
	assert.False(t, u.NeedsMigration(version.MustParse("3.4.0")))
}

func TestUpdater_OnLoadEndToEnd(t *testing.T) {
	doc := decodeLegacy(t)
	u := NewUpdater(toolVersion, nil)

	res, err := u.OnLoad("plane.json", doc)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Migrated)
	assert.Equal(t, "3.2.0", res.FromVersion.String())
	assert.Equal(t, toolVersion, res.ToVersion)

	scene := node(t, doc.Scenes()[0])
	assert.Equal(t, "3.4.0", scene[StampKey])
	assert.Equal(t, false, scene[KeyCompositeTextures])
	layer := scene.List(KeyLayers)[0]
	exportType, _ := layer.Get(KeyExportType)
	assert.Equal(t, "cockpit", exportType)
	autodetect, _ := layer.Get(KeyAutodetectTextures)
	assert.Equal(t, false, autodetect)
}

func TestUpdater_OnLoadIsIdempotent(t *testing.T) {
	doc := decodeLegacy(t)
	u := NewUpdater(toolVersion, nil)
	_, err := u.OnLoad("plane.json", doc)
	require.NoError(t, err)

	before, err := doc.Encode(document.FormatJSON)
	require.NoError(t, err)

	res, err := u.OnLoad("plane.json", doc)
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Empty(t, res.Steps)

	after, err := doc.Encode(document.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestUpdater_EmptyStampActsLike330(t *testing.T) {
	load := func(stamp string) *MigrationResult {
		doc := decodeLegacy(t)
		doc.SceneNodes[0][StampKey] = stamp
		res, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", doc)
		require.NoError(t, err)
		return res
	}
	empty := load("")
	explicit := load("3.3.0")
	assert.Equal(t, explicit.Steps, empty.Steps)
	assert.Equal(t, explicit.FromVersion, empty.FromVersion)
	assert.Equal(t, []string{"export-layers", "anim-and-manip-types"}, empty.Steps)

	// 字段缺失视为 3.2.0
	doc := decodeLegacy(t)
	delete(doc.SceneNodes[0], StampKey)
	res, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", doc)
	require.NoError(t, err)
	assert.Equal(t, "3.2.0", res.FromVersion.String())
}

func TestUpdater_OnLoadInvalidStampWritesNothing(t *testing.T) {
	doc := decodeLegacy(t)
	doc.SceneNodes[0][StampKey] = "3.x"

	res, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", doc)
	assert.ErrorIs(t, err, version.ErrInvalidVersionFormat)
	assert.Nil(t, res)

	scene := node(t, doc.Scenes()[0])
	assert.Equal(t, "3.x", scene[StampKey])
	assert.Equal(t, true, scene[KeyCompositeTextures])
}

func TestUpdater_OnLoadNewerFile(t *testing.T) {
	doc := decodeLegacy(t)
	doc.SceneNodes[0][StampKey] = "3.5.0"

	res, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", doc)
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Equal(t, "3.5.0", node(t, doc.Scenes()[0])[StampKey])
}

func TestUpdater_OnLoadNumericOrdering(t *testing.T) {
	// 3.10.0 晚于 3.4.0，字符串比较会得出相反的结论
	doc := decodeLegacy(t)
	doc.SceneNodes[0][StampKey] = "3.10.0"
	res, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", doc)
	require.NoError(t, err)
	assert.False(t, res.Migrated)
}

func TestUpdater_OnLoadWithoutPathDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	graph := NewMockGraph(ctrl)
	// 没有设置任何期望，任何调用都会使测试失败

	res, err := NewUpdater(toolVersion, nil).OnLoad("", graph)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestUpdater_OnLoadNoPrimaryScene(t *testing.T) {
	ctrl := gomock.NewController(t)
	graph := NewMockGraph(ctrl)
	graph.EXPECT().Scenes().Return(nil)

	_, err := NewUpdater(toolVersion, nil).OnLoad("plane.json", graph)
	assert.ErrorIs(t, err, ErrNoPrimaryScene)

	assert.ErrorIs(t, NewUpdater(toolVersion, nil).OnSave(&document.Document{}), ErrNoPrimaryScene)
}

func TestUpdater_OnSaveOnlyTouchesStamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	graph := NewMockGraph(ctrl)
	scene := NewMockRecord(ctrl)
	other := NewMockRecord(ctrl)

	graph.EXPECT().Scenes().Return([]types.Record{scene, other})
	scene.EXPECT().Set(StampKey, "3.4.0").Times(1)
	// other、Bones、Objects 都不应被访问

	require.NoError(t, NewUpdater(toolVersion, nil).OnSave(graph))
}

func TestUpdater_OnSaveOnDocument(t *testing.T) {
	doc := decodeLegacy(t)
	before := decodeLegacy(t)

	require.NoError(t, NewUpdater(toolVersion, nil).OnSave(doc))

	// 只有版本戳变化
	assert.Equal(t, "3.4.0", doc.SceneNodes[0][StampKey])
	doc.SceneNodes[0][StampKey] = before.SceneNodes[0][StampKey]
	a, err := doc.Encode(document.FormatJSON)
	require.NoError(t, err)
	b, err := before.Encode(document.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestUpdater_OnLoadStampsAfterMigration(t *testing.T) {
	ctrl := gomock.NewController(t)
	graph := NewMockGraph(ctrl)
	scene := NewMockRecord(ctrl)

	var order []string
	registry, err := NewStepRegistry(&Step{
		Threshold: version.MustParse("3.4.0"),
		Name:      "record",
		Apply:     func(types.Graph, *MigrationResult) { order = append(order, "step") },
	})
	require.NoError(t, err)

	graph.EXPECT().Scenes().Return([]types.Record{scene}).AnyTimes()
	scene.EXPECT().Get(StampKey).Return("3.3.0", true)
	scene.EXPECT().Set(StampKey, "3.4.0").Do(func(string, any) { order = append(order, "stamp") })

	res, err := NewUpdater(toolVersion, NewDriver(registry)).OnLoad("plane.json", graph)
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, []string{"step", "stamp"}, order)
}
