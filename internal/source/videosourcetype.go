// Package source は3種類のバックエンドを1つの名前空間にまとめ、検索とコントロール操作を提供する
package source

import (
	"fmt"

	"camhub/internal/camera"
	"camhub/internal/camera/local"
	"camhub/internal/camera/pipeline"
	"camhub/internal/camera/redirect"
)

// Kind はバックエンドの種類
type Kind string

const (
	KindLocal    Kind = "local"
	KindPipeline Kind = "pipeline"
	KindRedirect Kind = "redirect"
)

// Kinds は検出順に並べた全種類
var Kinds = []Kind{KindLocal, KindPipeline, KindRedirect}

// VideoSourceType は3種類のバックエンドのいずれか1つを保持する
//
// 値をコピーしてもバックエンドは複製されず、同じハンドルを共有する。
type VideoSourceType struct {
	kind     Kind
	local    *local.Source
	pipeline *pipeline.Source
	redirect *redirect.Source
}

// NewLocal はローカルデバイスのVideoSourceTypeを作成する
func NewLocal(s *local.Source) VideoSourceType {
	return VideoSourceType{kind: KindLocal, local: s}
}

// NewPipeline はパイプラインのVideoSourceTypeを作成する
func NewPipeline(s *pipeline.Source) VideoSourceType {
	return VideoSourceType{kind: KindPipeline, pipeline: s}
}

// NewRedirect はエイリアスのVideoSourceTypeを作成する
func NewRedirect(s *redirect.Source) VideoSourceType {
	return VideoSourceType{kind: KindRedirect, redirect: s}
}

// Kind はバックエンドの種類を返す
func (v VideoSourceType) Kind() Kind {
	return v.kind
}

// Inner は保持しているバックエンドを camera.VideoSource として返す
func (v VideoSourceType) Inner() camera.VideoSource {
	switch v.kind {
	case KindLocal:
		return v.local
	case KindPipeline:
		return v.pipeline
	case KindRedirect:
		return v.redirect
	default:
		panic(fmt.Sprintf("未知のソース種別: %q", v.kind))
	}
}

// Pipeline はパイプラインであればその実体を返す
func (v VideoSourceType) Pipeline() (*pipeline.Source, bool) {
	return v.pipeline, v.kind == KindPipeline
}

// Redirect はエイリアスであればその実体を返す
func (v VideoSourceType) Redirect() (*redirect.Source, bool) {
	return v.redirect, v.kind == KindRedirect
}

// SourceString は識別文字列を返す
func (v VideoSourceType) SourceString() string {
	return v.Inner().SourceString()
}
