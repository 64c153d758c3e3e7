package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"camhub/internal/camera"
)

type fakeProber struct {
	ffmpeg   bool
	displays map[string]bool
}

func (p *fakeProber) FFmpegAvailable(_ context.Context) bool {
	return p.ffmpeg
}

func (p *fakeProber) DisplayAvailable(_ context.Context, display string) bool {
	return p.displays[display]
}

func newTestDiscovery(prober *fakeProber) *Discovery {
	return NewDiscovery(Config{
		FFmpegPath: "/usr/bin/ffmpeg",
		Patterns:   []string{"smptebars", "nosuchpattern", "testsrc2"},
		Displays:   []string{":0", ":1"},
	}, prober, zap.NewNop())
}

func TestDiscovery_CamerasAvailable(t *testing.T) {
	ctx := context.Background()
	prober := &fakeProber{ffmpeg: true, displays: map[string]bool{":0": true}}
	discovery := newTestDiscovery(prober)

	sources := discovery.CamerasAvailable(ctx)
	require.Len(t, sources, 3)
	assert.Equal(t, "pattern:smptebars", sources[0].SourceString())
	assert.Equal(t, "pattern:testsrc2", sources[1].SourceString())
	assert.Equal(t, "x11::0", sources[2].SourceString())
	assert.Equal(t, KindScreen, sources[2].Kind())
	assert.Equal(t, "画面キャプチャ (:0)", sources[2].Name())

	for _, source := range sources {
		assert.True(t, source.IsShareable())
		assert.True(t, source.IsValid(ctx))
		assert.Len(t, source.Formats(ctx), 2)
		assert.Len(t, source.Controls(ctx), 3)
	}
}

func TestDiscovery_WithoutFFmpeg(t *testing.T) {
	discovery := newTestDiscovery(&fakeProber{ffmpeg: false})
	assert.Empty(t, discovery.CamerasAvailable(context.Background()))
}

func TestDiscovery_NothingConfigured(t *testing.T) {
	discovery := NewDiscovery(Config{}, &fakeProber{ffmpeg: true}, nil)
	assert.Empty(t, discovery.CamerasAvailable(context.Background()))
}

func TestDiscovery_StateSurvivesRediscovery(t *testing.T) {
	ctx := context.Background()
	discovery := newTestDiscovery(&fakeProber{ffmpeg: true})

	first := discovery.CamerasAvailable(ctx)[0]
	require.NoError(t, first.SetControlByName(ctx, "framerate", 10))

	second := discovery.CamerasAvailable(ctx)[0]
	value, err := second.ControlValueByID(ctx, ControlFramerate)
	require.NoError(t, err)
	assert.Equal(t, int64(10), value)

	// 別のパイプラインには影響しない
	other := discovery.CamerasAvailable(ctx)[1]
	value, err = other.ControlValueByID(ctx, ControlFramerate)
	require.NoError(t, err)
	assert.Equal(t, int64(30), value)
}

func TestSource_SetControlErrors(t *testing.T) {
	ctx := context.Background()
	source := newTestDiscovery(&fakeProber{ffmpeg: true}).CamerasAvailable(ctx)[0]

	err := source.SetControlByID(ctx, ControlFramerate, 0)
	assert.True(t, errors.Is(err, camera.ErrInvalidValue))

	err = source.SetControlByID(ctx, ControlResolution, 3)
	assert.True(t, errors.Is(err, camera.ErrInvalidValue))

	err = source.SetControlByID(ctx, ControlDrawMouse, 1)
	assert.True(t, errors.Is(err, camera.ErrControlNotFound))

	err = source.SetControlByName(ctx, "brightness", 1)
	assert.True(t, errors.Is(err, camera.ErrControlNotFound))

	_, err = source.ControlValueByName(ctx, "brightness")
	assert.True(t, errors.Is(err, camera.ErrControlNotFound))

	value, err := source.ControlValueByName(ctx, "framerate")
	require.NoError(t, err)
	assert.Equal(t, int64(30), value, "rejected writes must not change the value")
}

func TestSource_Args(t *testing.T) {
	ctx := context.Background()
	prober := &fakeProber{ffmpeg: true, displays: map[string]bool{":0": true}}
	sources := newTestDiscovery(prober).CamerasAvailable(ctx)
	pattern, screen := sources[0], sources[2]

	assert.Equal(t, []string{
		"-f", "lavfi",
		"-i", "smptebars=size=1280x720:rate=30",
		"-f", "image2pipe", "-c:v", "mjpeg", "-q:v", "3", "-",
	}, pattern.Args())

	require.NoError(t, pattern.SetControlByName(ctx, "resolution", 0))
	require.NoError(t, pattern.SetControlByName(ctx, "show_clock", 1))
	args := pattern.Args()
	assert.Contains(t, args, "smptebars=size=640x480:rate=30")
	assert.Contains(t, args, "-vf")

	assert.Equal(t, []string{
		"-f", "x11grab",
		"-video_size", "1280x720",
		"-r", "15",
		"-draw_mouse", "1",
		"-i", ":0",
		"-f", "image2pipe", "-c:v", "mjpeg", "-q:v", "3", "-",
	}, screen.Args())

	require.NoError(t, screen.SetControlByName(ctx, "draw_mouse", 0))
	command := screen.Command()
	assert.Equal(t, "/usr/bin/ffmpeg", command[0])
	assert.Contains(t, command, "0")
}

func TestSource_IsValidFollowsProber(t *testing.T) {
	ctx := context.Background()
	prober := &fakeProber{ffmpeg: true, displays: map[string]bool{":0": true}}
	sources := newTestDiscovery(prober).CamerasAvailable(ctx)

	prober.displays[":0"] = false
	assert.True(t, sources[0].IsValid(ctx))
	assert.False(t, sources[2].IsValid(ctx))

	prober.ffmpeg = false
	assert.False(t, sources[0].IsValid(ctx))
}
