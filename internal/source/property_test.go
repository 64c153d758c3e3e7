package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"camhub/internal/camera"
	"camhub/internal/camera/local"
	"camhub/internal/camera/redirect"
)

type generatedControl struct {
	control camera.Control
	fails   bool
}

// controlGen は値域と整合したデフォルト値を持つコントロールを生成する
func controlGen(id uint64) *rapid.Generator[generatedControl] {
	return rapid.Custom(func(t *rapid.T) generatedControl {
		var configuration camera.ControlType
		switch rapid.IntRange(0, 2).Draw(t, "type") {
		case 0:
			configuration = camera.BoolControl{Default: rapid.Bool().Draw(t, "default")}
		case 1:
			low := rapid.Int64Range(-100, 100).Draw(t, "min")
			high := low + rapid.Int64Range(0, 200).Draw(t, "span")
			configuration = camera.SliderControl{
				Default: rapid.Int64Range(low, high).Draw(t, "default"),
				Min:     low,
				Max:     high,
				Step:    1,
			}
		default:
			count := rapid.IntRange(1, 5).Draw(t, "options")
			options := make([]camera.MenuOption, count)
			for i := range options {
				options[i] = camera.MenuOption{Value: int64(i), Name: fmt.Sprintf("option%d", i)}
			}
			configuration = camera.MenuControl{
				Default: int64(rapid.IntRange(0, count-1).Draw(t, "default")),
				Options: options,
			}
		}

		return generatedControl{
			control: camera.Control{
				ID:            id,
				Name:          fmt.Sprintf("control%d", id),
				Configuration: configuration,
				State:         camera.ControlState{IsInactive: rapid.Bool().Draw(t, "inactive")},
			},
			fails: rapid.Bool().Draw(t, "fails"),
		}
	})
}

func drawDevice(t *rapid.T) (*local.MockDevice, []generatedControl) {
	count := rapid.IntRange(0, 8).Draw(t, "controls")
	generated := make([]generatedControl, count)
	device := &local.MockDevice{
		Name:       "生成デバイス",
		Formats:    testFormats,
		Values:     make(map[uint64]int64),
		FailWrites: make(map[uint64]error),
	}
	for i := range generated {
		id := uint64(i + 1)
		generated[i] = controlGen(id).Draw(t, fmt.Sprintf("control%d", id))
		device.Controls = append(device.Controls, generated[i].control)
		// デフォルト以外の値から始める
		device.Values[id] = rapid.Int64().Draw(t, fmt.Sprintf("initial%d", id))
		if generated[i].fails {
			device.FailWrites[id] = fmt.Errorf("control %d is stuck", id)
		}
	}
	return device, generated
}

func TestProperty_ResetCollectsEveryFailure(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		env := newTestEnv(t, nil, nil)
		device, generated := drawDevice(rt)
		env.driver.AddDevice("/dev/video0", device)

		err := env.manager.ResetControls(ctx, "/dev/video0")

		var wantFailures, wantAttempts int
		for _, g := range generated {
			if g.control.State.IsInactive {
				continue
			}
			wantAttempts++
			if g.fails {
				wantFailures++
			}
		}

		assert.Len(rt, env.driver.Writes(), wantAttempts)
		assert.Len(rt, ResetErrors(err), wantFailures)
		if wantFailures == 0 {
			assert.NoError(rt, err)
		}

		for _, write := range env.driver.Writes() {
			control, ok := camera.FindControlByID(device.Controls, write.ID)
			require.True(rt, ok)
			assert.False(rt, control.State.IsInactive, "inactive control %d was written", write.ID)
			assert.Equal(rt, control.Configuration.DefaultValue(), write.Value)
		}

		for _, g := range generated {
			if g.control.State.IsInactive || g.fails {
				continue
			}
			value, err := env.driver.ControlValue(ctx, "/dev/video0", g.control.ID)
			require.NoError(rt, err)
			assert.Equal(rt, g.control.Configuration.DefaultValue(), value)
		}

		for _, e := range ResetErrors(err) {
			var controlErr *camera.ControlError
			require.True(rt, errors.As(e, &controlErr))
			assert.Equal(rt, fmt.Sprintf("control%d", controlErr.ID), controlErr.Name)
		}
	})
}

func TestProperty_ResetWithoutActiveControlsWritesNothing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := newTestEnv(t, nil, nil)
		device, _ := drawDevice(rt)
		for i := range device.Controls {
			device.Controls[i].State.IsInactive = true
		}
		env.driver.AddDevice("/dev/video0", device)

		assert.NoError(rt, env.manager.ResetControls(context.Background(), "/dev/video0"))
		assert.Empty(rt, env.driver.Writes())
	})
}

func TestProperty_ResetIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		env := newTestEnv(t, nil, nil)
		device, _ := drawDevice(rt)
		device.FailWrites = nil
		env.driver.AddDevice("/dev/video0", device)

		require.NoError(rt, env.manager.ResetControls(ctx, "/dev/video0"))
		first := env.driver.Writes()
		env.driver.ResetWrites()

		require.NoError(rt, env.manager.ResetControls(ctx, "/dev/video0"))
		assert.Equal(rt, first, env.driver.Writes())

		for _, control := range device.Controls {
			if control.State.IsInactive {
				continue
			}
			value, err := env.driver.ControlValue(ctx, "/dev/video0", control.ID)
			require.NoError(rt, err)
			assert.Equal(rt, control.Configuration.DefaultValue(), value)
		}
	})
}

func TestProperty_NotFoundListsEveryIdentity(t *testing.T) {
	patterns := []string{"testsrc", "smptebars", "mandelbrot"}

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		enabled := rapid.SliceOfDistinct(rapid.SampledFrom(patterns), rapid.ID[string]).Draw(rt, "patterns")
		env := newTestEnv(t, enabled, nil)

		devices := rapid.IntRange(0, 4).Draw(rt, "devices")
		for i := 0; i < devices; i++ {
			env.driver.AddDevice(fmt.Sprintf("/dev/video%d", i), exampleDevice())
		}

		discovered := identitiesOf(env.manager.CamerasAvailable(ctx))
		attempted := rapid.StringMatching(`[a-z/]{1,12}`).Filter(func(s string) bool {
			return !slices.Contains(discovered, s)
		}).Draw(rt, "attempted")

		_, err := env.manager.GetVideoSource(ctx, attempted)
		var notFound *NotFoundError
		require.True(rt, errors.As(err, &notFound))
		assert.Equal(rt, attempted, notFound.Attempted)
		assert.Equal(rt, discovered, notFound.Available)
	})
}

func TestProperty_AggregationDoesNotDeduplicate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		devices := rapid.IntRange(0, 4).Draw(rt, "devices")

		// エイリアスはローカルデバイスと同じ識別文字列を持つことがある
		aliases := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) redirect.Alias {
			return redirect.Alias{
				Source: fmt.Sprintf("/dev/video%d", rapid.IntRange(0, 5).Draw(t, "alias")),
				Target: "rtsp://camera.local/stream",
			}
		}), 0, 4).Draw(rt, "aliases")

		env := newTestEnv(t, []string{"testsrc"}, aliases)
		for i := 0; i < devices; i++ {
			env.driver.AddDevice(fmt.Sprintf("/dev/video%d", i), exampleDevice())
		}

		want := len(env.registry.LocalSources(ctx)) +
			len(env.registry.PipelineSources(ctx)) +
			len(env.registry.RedirectSources(ctx))
		assert.Equal(rt, want, len(env.manager.CamerasAvailable(ctx)))
		assert.Equal(rt, devices+1+len(aliases), want)
	})
}

func TestManager_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)
	device := exampleDevice()
	device.FailWrites = map[uint64]error{1: errors.New("busy")}
	env.driver.AddDevice("/dev/video0", device)

	_ = env.manager.ResetControls(ctx, "/dev/video0")
	_ = env.manager.SetControl(ctx, "/dev/video0", 1, 1)

	count, err := testutil.GatherAndCount(env.collector.Registry(), "camhub_control_reset_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(env.collector.Registry(), "camhub_control_writes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(env.collector.Registry(), "camhub_discovered_sources")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
