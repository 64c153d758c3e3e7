//go:build !linux

package local

import (
	"context"
	"errors"

	"camhub/internal/camera"
)

var errNativeUnsupported = errors.New("ネイティブV4L2ドライバーはLinuxでのみ利用できます")

// NativeDriver はLinux以外では利用できない
type NativeDriver struct{}

// NewNativeDriver はLinux以外では常にエラーを返す
func NewNativeDriver(string) (*NativeDriver, error) {
	return nil, errNativeUnsupported
}

func (d *NativeDriver) Devices(context.Context) ([]string, error) {
	return nil, errNativeUnsupported
}

func (d *NativeDriver) Info(context.Context, string) (*DeviceInfo, error) {
	return nil, errNativeUnsupported
}

func (d *NativeDriver) Formats(context.Context, string) ([]camera.Format, error) {
	return nil, errNativeUnsupported
}

func (d *NativeDriver) Controls(context.Context, string) ([]camera.Control, error) {
	return nil, errNativeUnsupported
}

func (d *NativeDriver) ControlValue(context.Context, string, uint64) (int64, error) {
	return 0, errNativeUnsupported
}

func (d *NativeDriver) SetControl(context.Context, string, uint64, int64) error {
	return errNativeUnsupported
}
