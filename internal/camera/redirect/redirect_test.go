package redirect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camhub/internal/camera"
	"camhub/internal/camera/local"
)

type mapResolver map[string]camera.VideoSource

func (r mapResolver) Resolve(_ context.Context, identity string) (camera.VideoSource, bool) {
	source, ok := r[identity]
	return source, ok
}

func newTarget(t *testing.T) (*local.MockDriver, camera.VideoSource) {
	t.Helper()
	driver := local.NewMockDriver()
	driver.AddDevice("/dev/video0", &local.MockDevice{
		Name:    "USBカメラ",
		Formats: []camera.Format{{Encode: "YUYV"}},
		Controls: []camera.Control{
			{ID: 1, Name: "brightness", Configuration: camera.SliderControl{Default: 128, Min: 0, Max: 255, Step: 1}},
		},
	})
	return driver, local.NewSource("/dev/video0", "USBカメラ", driver)
}

func TestDiscovery_ExcludesIncompleteAliases(t *testing.T) {
	discovery := NewDiscovery([]Alias{
		{Name: "正面", Source: "front", Target: "/dev/video0"},
		{Name: "空", Source: "", Target: "/dev/video0"},
		{Name: "転送先なし", Source: "nowhere", Target: ""},
		{Source: "stream", Target: "rtsp://192.168.1.10/live"},
	}, mapResolver{}, nil)

	sources := discovery.CamerasAvailable(context.Background())
	require.Len(t, sources, 2)
	assert.Equal(t, "front", sources[0].SourceString())
	assert.Equal(t, "正面", sources[0].Name())
	assert.Equal(t, "stream", sources[1].Name())
	assert.Equal(t, "rtsp://192.168.1.10/live", sources[1].Target())
	assert.True(t, sources[1].IsShareable())
}

func TestSource_DelegatesToTarget(t *testing.T) {
	ctx := context.Background()
	driver, target := newTarget(t)
	source := NewSource(Alias{Source: "front", Target: "/dev/video0"}, mapResolver{"/dev/video0": target})

	assert.True(t, source.IsValid(ctx))
	assert.Len(t, source.Formats(ctx), 1)
	assert.Len(t, source.Controls(ctx), 1)

	require.NoError(t, source.SetControlByName(ctx, "brightness", 64))
	value, err := source.ControlValueByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(64), value)

	require.NoError(t, source.SetControlByID(ctx, 1, 32))
	value, err = source.ControlValueByName(ctx, "brightness")
	require.NoError(t, err)
	assert.Equal(t, int64(32), value)

	assert.Equal(t, []local.MockWrite{
		{Device: "/dev/video0", ID: 1, Value: 64},
		{Device: "/dev/video0", ID: 1, Value: 32},
	}, driver.Writes())

	// 転送先が取り外された
	driver.RemoveDevice("/dev/video0")
	assert.False(t, source.IsValid(ctx))
}

func TestSource_UnresolvedTarget(t *testing.T) {
	ctx := context.Background()
	source := NewSource(Alias{Source: "stream", Target: "rtsp://camera.local:554/stream1"}, mapResolver{})

	assert.True(t, source.IsValid(ctx))
	assert.NotNil(t, source.Formats(ctx))
	assert.Empty(t, source.Formats(ctx))
	assert.Empty(t, source.Controls(ctx))

	err := source.SetControlByID(ctx, 1, 1)
	assert.True(t, errors.Is(err, camera.ErrNotSupported))
	err = source.SetControlByName(ctx, "brightness", 1)
	assert.True(t, errors.Is(err, camera.ErrNotSupported))
	_, err = source.ControlValueByID(ctx, 1)
	assert.True(t, errors.Is(err, camera.ErrNotSupported))
	_, err = source.ControlValueByName(ctx, "brightness")
	assert.True(t, errors.Is(err, camera.ErrNotSupported))

	dangling := NewSource(Alias{Source: "gone", Target: "/dev/video9"}, nil)
	assert.False(t, dangling.IsValid(ctx))
}

func TestIsStreamURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"rtsp://192.168.1.10/live", true},
		{"udp://239.0.0.1:1234", true},
		{"https://example.com/cam.m3u8", true},
		{"/dev/video0", false},
		{"pattern:smptebars", false},
		{"ftp://example.com/file", false},
		{"rtsp://", false},
		{"://broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStreamURL(tt.raw))
		})
	}
}
