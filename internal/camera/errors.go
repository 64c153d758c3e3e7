package camera

import (
	"errors"
	"fmt"
)

var (
	// ErrControlNotFound は指定されたコントロールが存在しない
	ErrControlNotFound = errors.New("コントロールが見つかりません")

	// ErrInvalidValue は値がコントロールの値域外
	ErrInvalidValue = errors.New("コントロールの値域外の値です")

	// ErrNotSupported はソースがその操作をサポートしない
	ErrNotSupported = errors.New("サポートされていない操作です")
)

// ControlError は特定のコントロールへの読み書きの失敗を表す
type ControlError struct {
	Name string // コントロール名（不明な場合は空）
	ID   uint64 // コントロールID
	Err  error  // バックエンドのエラー
}

func (e *ControlError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("コントロール (id %d) の操作に失敗: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("コントロール '%s' (id %d) の操作に失敗: %v", e.Name, e.ID, e.Err)
}

// Unwrap は元のエラーを返す
func (e *ControlError) Unwrap() error {
	return e.Err
}
