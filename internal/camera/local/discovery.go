package local

import (
	"context"

	"go.uber.org/zap"
)

// Discovery はローカルV4L2デバイスの検出を担う
type Discovery struct {
	driver Driver
	logger *zap.Logger
}

// NewDiscovery は新しいDiscoveryを作成する
func NewDiscovery(driver Driver, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		driver: driver,
		logger: logger.With(zap.String("component", "local_discovery")),
	}
}

// CamerasAvailable は利用可能なデバイスをSourceとして返す
// 開けないデバイスとキャプチャフォーマットを持たないデバイス（メタデータ用ノード等）は除外する
func (d *Discovery) CamerasAvailable(ctx context.Context) []*Source {
	devices, err := d.driver.Devices(ctx)
	if err != nil {
		d.logger.Warn("デバイスのスキャンに失敗", zap.Error(err))
		return nil
	}

	var sources []*Source
	for _, device := range devices {
		info, err := d.driver.Info(ctx, device)
		if err != nil {
			d.logger.Debug("デバイスを除外", zap.String("device", device), zap.Error(err))
			continue
		}

		formats, err := d.driver.Formats(ctx, device)
		if err != nil || len(formats) == 0 {
			d.logger.Debug("キャプチャフォーマットがないため除外", zap.String("device", device), zap.Error(err))
			continue
		}

		sources = append(sources, NewSource(device, info.Name, d.driver))
	}

	return sources
}
