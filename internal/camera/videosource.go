package camera

import (
	"context"
)

// VideoSource は全ての映像ソースを統一するインターフェース
//
// 名前とIDのどちらで指定しても同じコントロールを指す。
// IsValid と IsShareable は参考情報で、他の呼び出しの前に強制されない。
type VideoSource interface {
	// メタデータ
	Name() string
	SourceString() string

	// Formats はサポートするフォーマットを返す（取得できない場合は空）
	Formats(ctx context.Context) []Format

	// Controls は非アクティブなものも含めた全コントロールのスナップショットを返す
	Controls(ctx context.Context) []Control

	// コントロールの書き込み
	SetControlByName(ctx context.Context, name string, value int64) error
	SetControlByID(ctx context.Context, id uint64, value int64) error

	// コントロールの読み込み
	ControlValueByName(ctx context.Context, name string) (int64, error)
	ControlValueByID(ctx context.Context, id uint64) (int64, error)

	// 状態
	IsValid(ctx context.Context) bool
	IsShareable() bool
}
