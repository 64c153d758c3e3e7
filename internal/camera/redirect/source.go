// Package redirect は別のソースやストリームURLを指すエイリアスのバックエンドを提供する
package redirect

import (
	"context"
	"fmt"
	"net/url"

	"camhub/internal/camera"
)

// streamSchemes は解決先がない場合に有効とみなすURLスキーム
var streamSchemes = map[string]bool{
	"rtsp":  true,
	"rtsps": true,
	"rtmp":  true,
	"udp":   true,
	"rtp":   true,
	"srt":   true,
	"http":  true,
	"https": true,
}

// Alias はエイリアスの設定
type Alias struct {
	Name   string `yaml:"name"`   // 表示名
	Source string `yaml:"source"` // エイリアスの識別文字列
	Target string `yaml:"target"` // 転送先の識別文字列またはストリームURL
}

// Resolver は識別文字列から転送先のソースを探す
type Resolver interface {
	Resolve(ctx context.Context, identity string) (camera.VideoSource, bool)
}

// Source は転送先へ呼び出しを委譲する camera.VideoSource 実装
type Source struct {
	alias    Alias
	resolver Resolver
}

var _ camera.VideoSource = (*Source)(nil)

// NewSource は新しいSourceを作成する
func NewSource(alias Alias, resolver Resolver) *Source {
	return &Source{alias: alias, resolver: resolver}
}

// Name は表示名を返す（未設定なら識別文字列）
func (s *Source) Name() string {
	if s.alias.Name == "" {
		return s.alias.Source
	}
	return s.alias.Name
}

// SourceString はエイリアスの識別文字列を返す
func (s *Source) SourceString() string {
	return s.alias.Source
}

// Target は転送先を返す
func (s *Source) Target() string {
	return s.alias.Target
}

// Formats は転送先のフォーマットを返す
func (s *Source) Formats(ctx context.Context) []camera.Format {
	target, ok := s.target(ctx)
	if !ok {
		return []camera.Format{}
	}
	return target.Formats(ctx)
}

// Controls は転送先のコントロールを返す
func (s *Source) Controls(ctx context.Context) []camera.Control {
	target, ok := s.target(ctx)
	if !ok {
		return []camera.Control{}
	}
	return target.Controls(ctx)
}

// SetControlByName は転送先のコントロールに書き込む
func (s *Source) SetControlByName(ctx context.Context, name string, value int64) error {
	target, err := s.mustTarget(ctx)
	if err != nil {
		return err
	}
	return target.SetControlByName(ctx, name, value)
}

// SetControlByID は転送先のコントロールに書き込む
func (s *Source) SetControlByID(ctx context.Context, id uint64, value int64) error {
	target, err := s.mustTarget(ctx)
	if err != nil {
		return err
	}
	return target.SetControlByID(ctx, id, value)
}

// ControlValueByName は転送先のコントロール値を読む
func (s *Source) ControlValueByName(ctx context.Context, name string) (int64, error) {
	target, err := s.mustTarget(ctx)
	if err != nil {
		return 0, err
	}
	return target.ControlValueByName(ctx, name)
}

// ControlValueByID は転送先のコントロール値を読む
func (s *Source) ControlValueByID(ctx context.Context, id uint64) (int64, error) {
	target, err := s.mustTarget(ctx)
	if err != nil {
		return 0, err
	}
	return target.ControlValueByID(ctx, id)
}

// IsValid は転送先が有効か、転送先がストリームURLであればtrueを返す
func (s *Source) IsValid(ctx context.Context) bool {
	if target, ok := s.target(ctx); ok {
		return target.IsValid(ctx)
	}
	return IsStreamURL(s.alias.Target)
}

// IsShareable はエイリアスが参照を渡すだけなので true
func (s *Source) IsShareable() bool {
	return true
}

func (s *Source) target(ctx context.Context) (camera.VideoSource, bool) {
	if s.resolver == nil {
		return nil, false
	}
	return s.resolver.Resolve(ctx, s.alias.Target)
}

func (s *Source) mustTarget(ctx context.Context) (camera.VideoSource, error) {
	target, ok := s.target(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' の転送先 '%s' はコントロールを持ちません",
			camera.ErrNotSupported, s.alias.Source, s.alias.Target)
	}
	return target, nil
}

// IsStreamURL はストリームとして扱えるURLかチェックする
func IsStreamURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return streamSchemes[u.Scheme] && u.Host != ""
}
