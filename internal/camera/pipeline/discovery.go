package pipeline

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"camhub/internal/camera"
)

// knownPatterns はlavfiで利用できるテストパターン
var knownPatterns = map[string]bool{
	"testsrc":     true,
	"testsrc2":    true,
	"smptebars":   true,
	"smptehdbars": true,
	"rgbtestsrc":  true,
	"yuvtestsrc":  true,
	"pal75bars":   true,
	"pal100bars":  true,
	"mandelbrot":  true,
	"life":        true,
}

// Config はパイプライン検出の設定
type Config struct {
	FFmpegPath string   // ffmpegの実行パス
	Patterns   []string // 公開するテストパターン
	Displays   []string // キャプチャ対象のX11ディスプレイ
}

// Prober は外部コマンドの利用可能性を確認する
type Prober interface {
	FFmpegAvailable(ctx context.Context) bool
	DisplayAvailable(ctx context.Context, display string) bool
}

// ExecProber はコマンドを実行して利用可能性を確認する
type ExecProber struct {
	ffmpeg  string
	timeout time.Duration
}

// NewExecProber は新しいExecProberを作成する
func NewExecProber(ffmpeg string) *ExecProber {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &ExecProber{ffmpeg: ffmpeg, timeout: 5 * time.Second}
}

// FFmpegAvailable はffmpegが実行できるかチェックする
func (p *ExecProber) FFmpegAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return exec.CommandContext(ctx, p.ffmpeg, "-hide_banner", "-version").Run() == nil
}

// DisplayAvailable はX11ディスプレイが利用可能かチェックする
func (p *ExecProber) DisplayAvailable(ctx context.Context, display string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	// xdpyinfoコマンドでX11ディスプレイの利用可能性をチェック
	return exec.CommandContext(ctx, "xdpyinfo", "-display", display).Run() == nil
}

// Discovery はパイプラインの検出とコントロール値の保持を担う
type Discovery struct {
	config Config
	prober Prober
	logger *zap.Logger

	mu     sync.Mutex
	states map[string]*state
}

// NewDiscovery は新しいDiscoveryを作成する
func NewDiscovery(config Config, prober Prober, logger *zap.Logger) *Discovery {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if prober == nil {
		prober = NewExecProber(config.FFmpegPath)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Discovery{
		config: config,
		prober: prober,
		logger: logger.With(zap.String("component", "pipeline_discovery")),
		states: make(map[string]*state),
	}
}

// CamerasAvailable は構成されたパイプラインのうち起動可能なものを返す
func (d *Discovery) CamerasAvailable(ctx context.Context) []*Source {
	if len(d.config.Patterns) == 0 && len(d.config.Displays) == 0 {
		return nil
	}

	if !d.prober.FFmpegAvailable(ctx) {
		d.logger.Debug("ffmpegが利用できないためパイプラインを除外", zap.String("ffmpeg", d.config.FFmpegPath))
		return nil
	}

	var sources []*Source
	for _, pattern := range d.config.Patterns {
		if !knownPatterns[pattern] {
			d.logger.Debug("未知のテストパターンを除外", zap.String("pattern", pattern))
			continue
		}
		sources = append(sources, d.newSource(KindPattern, pattern, patternControls()))
	}

	for _, display := range d.config.Displays {
		if display == "" || !d.prober.DisplayAvailable(ctx, display) {
			d.logger.Debug("利用できないディスプレイを除外", zap.String("display", display))
			continue
		}
		sources = append(sources, d.newSource(KindScreen, display, screenControls()))
	}

	return sources
}

// newSource はSourceを作り、識別文字列ごとのコントロール値を共有させる
func (d *Discovery) newSource(kind Kind, input string, controls []camera.Control) *Source {
	source := &Source{
		kind:     kind,
		input:    input,
		ffmpeg:   d.config.FFmpegPath,
		controls: controls,
		prober:   d.prober,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	identity := source.SourceString()
	st, ok := d.states[identity]
	if !ok {
		st = newState(controls)
		d.states[identity] = st
	}
	source.state = st

	return source
}
