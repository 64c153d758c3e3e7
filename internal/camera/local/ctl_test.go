package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camhub/internal/camera"
)

// fakeV4L2Ctl は引数に応じて固定の出力を返すv4l2-ctlの代用スクリプトを作る
// --set-ctrl の引数は log ファイルに追記する
func fakeV4L2Ctl(t *testing.T) (binary string, logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}

	dir := t.TempDir()
	logFile = filepath.Join(dir, "set.log")
	writeFixture(t, filepath.Join(dir, "info.txt"), sampleInfo)
	writeFixture(t, filepath.Join(dir, "formats.txt"), sampleFormats)
	writeFixture(t, filepath.Join(dir, "controls.txt"), sampleControls)

	script := `#!/bin/sh
dir="$(dirname "$0")"
shift 2
case "$1" in
  --info) cat "$dir/info.txt" ;;
  --list-formats-ext) cat "$dir/formats.txt" ;;
  --list-ctrls-menus) cat "$dir/controls.txt" ;;
  --get-ctrl) echo "$2: 12" ;;
  --set-ctrl)
    case "$2" in
      contrast=*) echo "VIDIOC_S_EXT_CTRLS: failed: Permission denied" >&2; exit 1 ;;
    esac
    echo "$2" >> "$dir/set.log" ;;
  *) exit 2 ;;
esac
`
	binary = filepath.Join(dir, "v4l2-ctl")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, logFile
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCtlDriver_WithFakeBinary(t *testing.T) {
	ctx := context.Background()
	binary, logFile := fakeV4L2Ctl(t)

	driver := NewCtlDriver("", time.Second)
	driver.binary = binary

	info, err := driver.Info(ctx, "/dev/video0")
	require.NoError(t, err)
	assert.Equal(t, "HD Webcam: HD Webcam", info.Name)
	assert.Equal(t, "uvcvideo", info.Driver)

	formats, err := driver.Formats(ctx, "/dev/video0")
	require.NoError(t, err)
	assert.Len(t, formats, 2)

	controls, err := driver.Controls(ctx, "/dev/video0")
	require.NoError(t, err)
	assert.Len(t, controls, 7)

	value, err := driver.ControlValue(ctx, "/dev/video0", 0x00980900)
	require.NoError(t, err)
	assert.Equal(t, int64(12), value)

	require.NoError(t, driver.SetControl(ctx, "/dev/video0", 0x00980900, -3))
	written, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "brightness=-3\n", string(written))

	err = driver.SetControl(ctx, "/dev/video0", 0x00980901, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Permission denied")

	err = driver.SetControl(ctx, "/dev/video0", 0xdeadbeef, 1)
	assert.True(t, errors.Is(err, camera.ErrControlNotFound))
}

func TestCtlDriver_MissingBinary(t *testing.T) {
	driver := NewCtlDriver("", time.Second)
	driver.binary = filepath.Join(t.TempDir(), "does-not-exist")

	_, err := driver.Info(context.Background(), "/dev/video0")
	assert.Error(t, err)
}

func TestCtlDriver_Devices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"video10", "video2", "video0"} {
		writeFixture(t, filepath.Join(dir, name), "")
	}

	driver := NewCtlDriver(filepath.Join(dir, "video*"), time.Second)
	devices, err := driver.Devices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "video0"),
		filepath.Join(dir, "video2"),
		filepath.Join(dir, "video10"),
	}, devices)
}
