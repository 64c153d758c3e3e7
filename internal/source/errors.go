package source

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// NotFoundError は識別文字列に一致するソースがない
type NotFoundError struct {
	Attempted string   // 検索した識別文字列
	Available []string // 検索時に検出された全ての識別文字列
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ソース '%s' が見つかりません（利用可能: [%s]）",
		e.Attempted, strings.Join(e.Available, ", "))
}

// Is で os.ErrNotExist と一致させる
func (e *NotFoundError) Is(target error) bool {
	return target == os.ErrNotExist
}

// ResetError はリセットで失敗した全てのエラーを保持する
type ResetError struct {
	Source string
	Errors []error
}

func (e *ResetError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("'%s' のコントロールのリセットで %d 件失敗: %s",
		e.Source, len(e.Errors), strings.Join(messages, "; "))
}

// Unwrap は個々のエラーを返す
func (e *ResetError) Unwrap() []error {
	return e.Errors
}

// ResetErrors はerrがResetErrorであれば個々のエラーを、そうでなければerr自身を1件として返す
func ResetErrors(err error) []error {
	if err == nil {
		return nil
	}
	var resetErr *ResetError
	if errors.As(err, &resetErr) {
		return resetErr.Errors
	}
	return []error{err}
}
