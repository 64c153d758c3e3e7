// Package pipeline はffmpegで構成するソフトウェア映像パイプラインのバックエンドを提供する
//
// テストパターン（lavfi）とX11画面キャプチャ（x11grab）の2種類を扱う。
// コントロールはffmpegの引数に反映されるソフトウェア設定で、Discoveryが識別文字列ごとに保持する。
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"camhub/internal/camera"
)

// Kind はパイプラインの種類
type Kind string

const (
	// KindPattern はlavfiのテストパターン
	KindPattern Kind = "pattern"
	// KindScreen はX11画面キャプチャ
	KindScreen Kind = "x11"
)

// コントロールID
const (
	ControlFramerate  uint64 = 1
	ControlResolution uint64 = 2
	ControlShowClock  uint64 = 3
	ControlDrawMouse  uint64 = 4
)

// resolutions は resolution メニューの選択肢
var resolutions = []camera.Size{
	{Width: 640, Height: 480},
	{Width: 1280, Height: 720},
	{Width: 1920, Height: 1080},
}

// state はパイプラインのコントロール値
type state struct {
	mu     sync.RWMutex
	values map[uint64]int64
}

func newState(controls []camera.Control) *state {
	values := make(map[uint64]int64, len(controls))
	for _, control := range controls {
		values[control.ID] = control.Configuration.DefaultValue()
	}
	return &state{values: values}
}

func (s *state) get(id uint64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[id]
}

func (s *state) set(id uint64, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = value
}

// Source はffmpegパイプラインの camera.VideoSource 実装
type Source struct {
	kind     Kind
	input    string // パターン名またはディスプレイ
	ffmpeg   string
	controls []camera.Control
	state    *state
	prober   Prober
}

var _ camera.VideoSource = (*Source)(nil)

// Kind はパイプラインの種類を返す
func (s *Source) Kind() Kind {
	return s.kind
}

// Name は表示名を返す
func (s *Source) Name() string {
	switch s.kind {
	case KindScreen:
		return fmt.Sprintf("画面キャプチャ (%s)", s.input)
	default:
		return fmt.Sprintf("テストパターン (%s)", s.input)
	}
}

// SourceString は "<種類>:<入力>" 形式の識別文字列を返す
func (s *Source) SourceString() string {
	return fmt.Sprintf("%s:%s", s.kind, s.input)
}

// Formats はパイプラインが出力できるフォーマットを返す
func (s *Source) Formats(_ context.Context) []camera.Format {
	intervals := []camera.FrameInterval{
		camera.IntervalFromFPS(30),
		camera.IntervalFromFPS(15),
	}

	formats := make([]camera.Format, 0, 2)
	for _, encode := range []string{"MJPG", "H264"} {
		sizes := make([]camera.Size, 0, len(resolutions))
		for _, resolution := range resolutions {
			sizes = append(sizes, camera.Size{
				Width:     resolution.Width,
				Height:    resolution.Height,
				Intervals: append([]camera.FrameInterval(nil), intervals...),
			})
		}
		formats = append(formats, camera.Format{Encode: encode, Sizes: sizes})
	}
	return formats
}

// Controls はコントロール定義のコピーを返す
func (s *Source) Controls(_ context.Context) []camera.Control {
	controls := make([]camera.Control, len(s.controls))
	copy(controls, s.controls)
	return controls
}

// SetControlByName は名前で指定したコントロールに値を書き込む
func (s *Source) SetControlByName(_ context.Context, name string, value int64) error {
	control, ok := camera.FindControlByName(s.controls, name)
	if !ok {
		return fmt.Errorf("%w: '%s' (%s)", camera.ErrControlNotFound, name, s.SourceString())
	}
	return s.setControl(control, value)
}

// SetControlByID はIDで指定したコントロールに値を書き込む
func (s *Source) SetControlByID(_ context.Context, id uint64, value int64) error {
	control, ok := camera.FindControlByID(s.controls, id)
	if !ok {
		return fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, s.SourceString())
	}
	return s.setControl(control, value)
}

// ControlValueByName は名前で指定したコントロールの現在値を返す
func (s *Source) ControlValueByName(_ context.Context, name string) (int64, error) {
	control, ok := camera.FindControlByName(s.controls, name)
	if !ok {
		return 0, fmt.Errorf("%w: '%s' (%s)", camera.ErrControlNotFound, name, s.SourceString())
	}
	return s.state.get(control.ID), nil
}

// ControlValueByID はIDで指定したコントロールの現在値を返す
func (s *Source) ControlValueByID(_ context.Context, id uint64) (int64, error) {
	if _, ok := camera.FindControlByID(s.controls, id); !ok {
		return 0, fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, s.SourceString())
	}
	return s.state.get(id), nil
}

// IsValid はffmpeg（画面キャプチャの場合はディスプレイも）が利用可能かチェックする
func (s *Source) IsValid(ctx context.Context) bool {
	if !s.prober.FFmpegAvailable(ctx) {
		return false
	}
	if s.kind == KindScreen {
		return s.prober.DisplayAvailable(ctx, s.input)
	}
	return true
}

// IsShareable はパイプラインを複数の利用者で共有できるため true
func (s *Source) IsShareable() bool {
	return true
}

// Args は現在のコントロール値からffmpegの引数を組み立てる
func (s *Source) Args() []string {
	fps := s.state.get(ControlFramerate)
	resolution := resolutions[s.state.get(ControlResolution)]
	videoSize := fmt.Sprintf("%dx%d", resolution.Width, resolution.Height)

	var args []string
	switch s.kind {
	case KindScreen:
		args = []string{
			"-f", "x11grab",
			"-video_size", videoSize,
			"-r", strconv.FormatInt(fps, 10),
			"-draw_mouse", strconv.FormatInt(s.state.get(ControlDrawMouse), 10),
			"-i", s.input,
		}
	default:
		args = []string{
			"-f", "lavfi",
			"-i", fmt.Sprintf("%s=size=%s:rate=%d", s.input, videoSize, fps),
		}
		if s.state.get(ControlShowClock) == 1 {
			args = append(args, "-vf", "drawtext=text='%{localtime}':x=10:y=10:fontcolor=white")
		}
	}

	return append(args,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)
}

// Command はffmpegの実行パスを含めたコマンドラインを返す
func (s *Source) Command() []string {
	return append([]string{s.ffmpeg}, s.Args()...)
}

func (s *Source) setControl(control camera.Control, value int64) error {
	if err := control.Configuration.Validate(value); err != nil {
		return err
	}
	s.state.set(control.ID, value)
	return nil
}

// patternControls はテストパターンのコントロール定義
func patternControls() []camera.Control {
	return []camera.Control{
		framerateControl(30),
		resolutionControl(),
		{ID: ControlShowClock, Name: "show_clock", Configuration: camera.BoolControl{Default: false}},
	}
}

// screenControls は画面キャプチャのコントロール定義
func screenControls() []camera.Control {
	return []camera.Control{
		framerateControl(15),
		resolutionControl(),
		{ID: ControlDrawMouse, Name: "draw_mouse", Configuration: camera.BoolControl{Default: true}},
	}
}

func framerateControl(defaultFPS int64) camera.Control {
	return camera.Control{
		ID:            ControlFramerate,
		Name:          "framerate",
		Configuration: camera.SliderControl{Default: defaultFPS, Min: 1, Max: 60, Step: 1},
	}
}

func resolutionControl() camera.Control {
	options := make([]camera.MenuOption, 0, len(resolutions))
	for i, resolution := range resolutions {
		options = append(options, camera.MenuOption{
			Value: int64(i),
			Name:  fmt.Sprintf("%dx%d", resolution.Width, resolution.Height),
		})
	}
	return camera.Control{
		ID:            ControlResolution,
		Name:          "resolution",
		Configuration: camera.MenuControl{Default: 1, Options: options},
	}
}
