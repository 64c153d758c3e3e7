package source

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"camhub/internal/camera"
	"camhub/internal/camera/local"
	"camhub/internal/camera/pipeline"
	"camhub/internal/camera/redirect"
	"camhub/internal/metrics"
)

// LocalDiscovery はローカルデバイスを検出する
type LocalDiscovery interface {
	CamerasAvailable(ctx context.Context) []*local.Source
}

// PipelineDiscovery はパイプラインを検出する
type PipelineDiscovery interface {
	CamerasAvailable(ctx context.Context) []*pipeline.Source
}

// RedirectDiscovery はエイリアスを検出する
type RedirectDiscovery interface {
	CamerasAvailable(ctx context.Context) []*redirect.Source
}

// Registry は種類ごとの検出を束ね、結果をVideoSourceTypeに包む
type Registry struct {
	local    LocalDiscovery
	pipeline PipelineDiscovery
	redirect RedirectDiscovery
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewRegistry は新しいRegistryを作成する
// エイリアスの転送先はこのRegistryがローカルとパイプラインから解決する
func NewRegistry(
	localDiscovery LocalDiscovery,
	pipelineDiscovery PipelineDiscovery,
	aliases []redirect.Alias,
	logger *zap.Logger,
	collector *metrics.Collector,
) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		local:    localDiscovery,
		pipeline: pipelineDiscovery,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "registry")),
	}
	r.redirect = redirect.NewDiscovery(aliases, r, logger)
	return r
}

// LocalSources はローカルデバイスを検出する
func (r *Registry) LocalSources(ctx context.Context) []VideoSourceType {
	if r.local == nil {
		return nil
	}
	return lo.Map(r.local.CamerasAvailable(ctx), func(s *local.Source, _ int) VideoSourceType {
		return NewLocal(s)
	})
}

// PipelineSources はパイプラインを検出する
func (r *Registry) PipelineSources(ctx context.Context) []VideoSourceType {
	if r.pipeline == nil {
		return nil
	}
	return lo.Map(r.pipeline.CamerasAvailable(ctx), func(s *pipeline.Source, _ int) VideoSourceType {
		return NewPipeline(s)
	})
}

// RedirectSources はエイリアスを検出する
func (r *Registry) RedirectSources(ctx context.Context) []VideoSourceType {
	return lo.Map(r.redirect.CamerasAvailable(ctx), func(s *redirect.Source, _ int) VideoSourceType {
		return NewRedirect(s)
	})
}

// All は全種類の検出を並行に行い、ローカル、パイプライン、エイリアスの順に連結する
func (r *Registry) All(ctx context.Context) []VideoSourceType {
	start := time.Now()

	discoverers := []func(context.Context) []VideoSourceType{
		r.LocalSources,
		r.PipelineSources,
		r.RedirectSources,
	}
	results := make([][]VideoSourceType, len(discoverers))

	var g errgroup.Group
	for i, discover := range discoverers {
		i, discover := i, discover
		g.Go(func() error {
			results[i] = discover(ctx)
			return nil
		})
	}
	_ = g.Wait() // 検出は失敗しない

	counts := make(map[string]int, len(Kinds))
	for i, kind := range Kinds {
		counts[string(kind)] = len(results[i])
	}
	r.metrics.RecordDiscovery(counts, time.Since(start))
	r.logger.Debug("ソースを検出",
		zap.Int("local", counts[string(KindLocal)]),
		zap.Int("pipeline", counts[string(KindPipeline)]),
		zap.Int("redirect", counts[string(KindRedirect)]),
		zap.Duration("duration", time.Since(start)),
	)

	return lo.Flatten(results)
}

// Resolve はエイリアスの転送先をローカルとパイプラインから探す
func (r *Registry) Resolve(ctx context.Context, identity string) (camera.VideoSource, bool) {
	candidates := append(r.LocalSources(ctx), r.PipelineSources(ctx)...)
	found, ok := lo.Find(candidates, func(v VideoSourceType) bool {
		return v.SourceString() == identity
	})
	if !ok {
		return nil, false
	}
	return found.Inner(), true
}
