package redirect

import (
	"context"

	"go.uber.org/zap"
)

// Discovery は設定済みのエイリアスを列挙する
type Discovery struct {
	aliases  []Alias
	resolver Resolver
	logger   *zap.Logger
}

// NewDiscovery は新しいDiscoveryを作成する
func NewDiscovery(aliases []Alias, resolver Resolver, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		aliases:  aliases,
		resolver: resolver,
		logger:   logger.With(zap.String("component", "redirect_discovery")),
	}
}

// CamerasAvailable はエイリアスをSourceとして返す
// 識別文字列か転送先が空のエイリアスは除外する
func (d *Discovery) CamerasAvailable(_ context.Context) []*Source {
	sources := make([]*Source, 0, len(d.aliases))
	for _, alias := range d.aliases {
		if alias.Source == "" || alias.Target == "" {
			d.logger.Debug("不完全なエイリアスを除外", zap.String("name", alias.Name))
			continue
		}
		sources = append(sources, NewSource(alias, d.resolver))
	}
	return sources
}
