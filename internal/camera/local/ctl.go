package local

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"camhub/internal/camera"
)

// DefaultDevicePattern はV4L2デバイスの検索パターン
const DefaultDevicePattern = "/dev/video*"

// CtlDriver はv4l2-ctlコマンドを使ってV4L2デバイスを操作する
type CtlDriver struct {
	binary  string
	pattern string
	timeout time.Duration
}

// NewCtlDriver は新しいCtlDriverを作成する
func NewCtlDriver(pattern string, timeout time.Duration) *CtlDriver {
	if pattern == "" {
		pattern = DefaultDevicePattern
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &CtlDriver{
		binary:  "v4l2-ctl",
		pattern: pattern,
		timeout: timeout,
	}
}

// Devices はシステム内のV4L2デバイスをスキャンする
func (d *CtlDriver) Devices(ctx context.Context) ([]string, error) {
	matches, err := scanDevices(d.pattern)
	if err != nil {
		return nil, err
	}

	// コンテキストのキャンセルをチェック
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// Info はv4l2-ctl --infoからデバイス情報を取得する
func (d *CtlDriver) Info(ctx context.Context, device string) (*DeviceInfo, error) {
	output, err := d.run(ctx, device, "--info")
	if err != nil {
		return nil, err
	}

	fields := parseInfo(string(output))
	info := &DeviceInfo{
		Device:  device,
		Name:    fields["Card type"],
		Driver:  fields["Driver name"],
		BusInfo: fields["Bus info"],
	}
	if info.Name == "" {
		info.Name = fallbackDeviceName(device)
	}

	return info, nil
}

// Formats はサポートされているフォーマット一覧を取得する
func (d *CtlDriver) Formats(ctx context.Context, device string) ([]camera.Format, error) {
	output, err := d.run(ctx, device, "--list-formats-ext")
	if err != nil {
		return nil, err
	}

	return parseFormats(string(output)), nil
}

// Controls はコントロール一覧（メニュー項目を含む）を取得する
func (d *CtlDriver) Controls(ctx context.Context, device string) ([]camera.Control, error) {
	output, err := d.run(ctx, device, "--list-ctrls-menus")
	if err != nil {
		return nil, err
	}

	return parseControls(string(output)), nil
}

// ControlValue はコントロールの現在値を取得する
func (d *CtlDriver) ControlValue(ctx context.Context, device string, id uint64) (int64, error) {
	name, err := d.controlName(ctx, device, id)
	if err != nil {
		return 0, err
	}

	output, err := d.run(ctx, device, "--get-ctrl", name)
	if err != nil {
		return 0, err
	}

	return parseControlValue(string(output))
}

// SetControl はカメラのコントロールを設定する
func (d *CtlDriver) SetControl(ctx context.Context, device string, id uint64, value int64) error {
	name, err := d.controlName(ctx, device, id)
	if err != nil {
		return err
	}

	_, err = d.run(ctx, device, "--set-ctrl", fmt.Sprintf("%s=%d", name, value))
	return err
}

// controlName はv4l2-ctlが受け付けるコントロール名をIDから解決する
func (d *CtlDriver) controlName(ctx context.Context, device string, id uint64) (string, error) {
	controls, err := d.Controls(ctx, device)
	if err != nil {
		return "", err
	}

	control, ok := camera.FindControlByID(controls, id)
	if !ok {
		return "", fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, device)
	}

	return control.Name, nil
}

// run はタイムアウト付きでv4l2-ctlを実行する
func (d *CtlDriver) run(ctx context.Context, device string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.binary, append([]string{"--device", device}, args...)...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("v4l2-ctl %s の実行に失敗: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// parseControlValue は "brightness: 0" 形式の出力から値を取り出す
func parseControlValue(output string) (int64, error) {
	_, value, ok := strings.Cut(strings.TrimSpace(output), ":")
	if !ok {
		return 0, fmt.Errorf("コントロール値を解析できません: %q", output)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("コントロール値を解析できません: %w", err)
	}

	return n, nil
}
