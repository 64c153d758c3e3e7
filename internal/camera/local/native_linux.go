//go:build linux

package local

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/vladimirvivien/go4vl/v4l2"

	"camhub/internal/camera"
)

// V4L2のコントロール種別（videodev2.h の v4l2_ctrl_type）
const (
	ctrlTypeInteger     = 1
	ctrlTypeBoolean     = 2
	ctrlTypeMenu        = 3
	ctrlTypeInteger64   = 5
	ctrlTypeIntegerMenu = 9
)

// NativeDriver はioctlでV4L2デバイスを直接操作する
//
// go4vlはコントロールのフラグを公開しないため、全コントロールをアクティブとして報告する。
// また値域がint32でしか取れないため、64bit整数のコントロールは報告しない。
type NativeDriver struct {
	pattern string
}

// NewNativeDriver は新しいNativeDriverを作成する
func NewNativeDriver(pattern string) (*NativeDriver, error) {
	if pattern == "" {
		pattern = DefaultDevicePattern
	}
	return &NativeDriver{pattern: pattern}, nil
}

// Devices はシステム内のV4L2デバイスをスキャンする
func (d *NativeDriver) Devices(ctx context.Context) ([]string, error) {
	matches, err := scanDevices(d.pattern)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Info はVIDIOC_QUERYCAPでデバイス情報を取得する
func (d *NativeDriver) Info(_ context.Context, device string) (*DeviceInfo, error) {
	var info *DeviceInfo
	err := withDevice(device, func(fd uintptr) error {
		capability, err := v4l2.GetCapability(fd)
		if err != nil {
			return fmt.Errorf("デバイス能力の取得に失敗: %w", err)
		}

		info = &DeviceInfo{
			Device:  device,
			Name:    capability.Card,
			Driver:  capability.Driver,
			BusInfo: capability.BusInfo,
		}
		if info.Name == "" {
			info.Name = fallbackDeviceName(device)
		}
		return nil
	})
	return info, err
}

// Formats はフォーマットとフレームサイズを列挙する
func (d *NativeDriver) Formats(_ context.Context, device string) ([]camera.Format, error) {
	var formats []camera.Format
	err := withDevice(device, func(fd uintptr) error {
		descriptions, err := v4l2.GetAllFormatDescriptions(fd)
		if err != nil {
			return fmt.Errorf("フォーマット一覧の取得に失敗: %w", err)
		}

		for _, description := range descriptions {
			format := camera.Format{Encode: fourCC(uint32(description.PixelFormat))}

			frameSizes, err := v4l2.GetFormatFrameSizes(fd, description.PixelFormat)
			if err == nil {
				for _, frameSize := range frameSizes {
					format.Sizes = append(format.Sizes, camera.Size{
						Width:  frameSize.Size.MaxWidth,
						Height: frameSize.Size.MaxHeight,
					})
				}
			}

			formats = append(formats, format)
		}
		return nil
	})
	return formats, err
}

// Controls はVIDIOC_QUERYCTRLでコントロールを列挙する
func (d *NativeDriver) Controls(_ context.Context, device string) ([]camera.Control, error) {
	var controls []camera.Control
	err := withDevice(device, func(fd uintptr) error {
		queried, err := v4l2.QueryAllControls(fd)
		if err != nil {
			return fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
		}

		for _, ctrl := range queried {
			configuration, ok := controlConfiguration(ctrl)
			if !ok {
				continue
			}

			controls = append(controls, camera.Control{
				ID:            uint64(ctrl.ID),
				Name:          ctrl.Name,
				Configuration: configuration,
			})
		}
		return nil
	})
	return controls, err
}

// ControlValue はVIDIOC_G_CTRLで現在値を取得する
func (d *NativeDriver) ControlValue(_ context.Context, device string, id uint64) (int64, error) {
	var value int64
	err := withDevice(device, func(fd uintptr) error {
		v, err := v4l2.GetControlValue(fd, v4l2.CtrlID(id))
		if err != nil {
			return fmt.Errorf("コントロール (id %d) の取得に失敗: %w", id, err)
		}
		value = int64(v)
		return nil
	})
	return value, err
}

// SetControl はVIDIOC_S_CTRLで値を書き込む
func (d *NativeDriver) SetControl(_ context.Context, device string, id uint64, value int64) error {
	return withDevice(device, func(fd uintptr) error {
		if err := v4l2.SetControlValue(fd, v4l2.CtrlID(id), v4l2.CtrlValue(value)); err != nil {
			return fmt.Errorf("コントロール (id %d) の設定に失敗: %w", id, err)
		}
		return nil
	})
}

// withDevice はデバイスを開いて処理を実行し、必ず閉じる
func withDevice(device string, fn func(fd uintptr) error) error {
	file, err := os.OpenFile(device, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("デバイスを開けません: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return fn(file.Fd())
}

// fourCC はピクセルフォーマットを4文字の文字列にする
func fourCC(code uint32) string {
	return string([]byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)})
}

// controlConfiguration はコントロールの種別と値域を変換する
// 扱えない種別はfalseを返す
func controlConfiguration(ctrl v4l2.Control) (camera.ControlType, bool) {
	switch uint32(ctrl.Type) {
	case ctrlTypeInteger:
		return camera.SliderControl{
			Default: int64(ctrl.Default),
			Min:     int64(ctrl.Minimum),
			Max:     int64(ctrl.Maximum),
			Step:    int64(ctrl.Step),
		}, true
	case ctrlTypeBoolean:
		return camera.BoolControl{Default: ctrl.Default != 0}, true
	case ctrlTypeMenu, ctrlTypeIntegerMenu:
		menu := camera.MenuControl{Default: int64(ctrl.Default)}
		if items, err := ctrl.GetMenuItems(); err == nil {
			for _, item := range items {
				name := item.Name
				if name == "" {
					name = fmt.Sprintf("%d", item.Value)
				}
				menu.Options = append(menu.Options, camera.MenuOption{Value: int64(item.Index), Name: name})
			}
		}
		return menu, true
	default:
		// ctrlTypeInteger64 はint32の値域では表せない
		return nil, false
	}
}
