// Package local はローカルに接続されたV4L2キャプチャデバイスのバックエンドを提供する
package local

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"camhub/internal/camera"
)

// Driver はV4L2デバイスへのアクセス手段を抽象化する
type Driver interface {
	// Devices はデバイスパスの一覧を返す
	Devices(ctx context.Context) ([]string, error)

	// Info はデバイス情報を返す（開けないデバイスはエラー）
	Info(ctx context.Context, device string) (*DeviceInfo, error)

	// Formats はキャプチャフォーマットを返す
	Formats(ctx context.Context, device string) ([]camera.Format, error)

	// Controls はコントロール一覧を返す
	Controls(ctx context.Context, device string) ([]camera.Control, error)

	// ControlValue はコントロールの現在値を返す
	ControlValue(ctx context.Context, device string, id uint64) (int64, error)

	// SetControl はコントロールに値を書き込む
	SetControl(ctx context.Context, device string, id uint64, value int64) error
}

// DeviceInfo はカメラデバイスの詳細情報を表す
type DeviceInfo struct {
	Device  string // デバイスパス
	Name    string // デバイス名
	Driver  string // ドライバー名
	BusInfo string // バス情報
}

// scanDevices はパターンに一致するデバイスをデバイス番号順に返す
func scanDevices(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return extractDeviceNumber(matches[i]) < extractDeviceNumber(matches[j])
	})

	return matches, nil
}

var deviceNumberPattern = regexp.MustCompile(`video(\d+)`)

// extractDeviceNumber はデバイスパスから番号を抽出する
func extractDeviceNumber(device string) int {
	// /dev/videoXX から XX を抽出
	matches := deviceNumberPattern.FindStringSubmatch(device)
	if len(matches) < 2 {
		return 0
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}

	return num
}

// fallbackDeviceName はデバイス番号から表示名を生成する
func fallbackDeviceName(device string) string {
	return fmt.Sprintf("カメラ %d", extractDeviceNumber(device))
}
