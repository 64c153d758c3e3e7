package local

import (
	"context"
	"fmt"

	"camhub/internal/camera"
)

// Source はローカルV4L2デバイスの camera.VideoSource 実装
type Source struct {
	device string
	name   string
	driver Driver
}

var _ camera.VideoSource = (*Source)(nil)

// NewSource は新しいSourceを作成する
func NewSource(device, name string, driver Driver) *Source {
	return &Source{
		device: device,
		name:   name,
		driver: driver,
	}
}

// Name はデバイス名を返す
func (s *Source) Name() string {
	return s.name
}

// SourceString はデバイスパスを返す
func (s *Source) SourceString() string {
	return s.device
}

// Formats はキャプチャフォーマットを返す（取得できない場合は空）
func (s *Source) Formats(ctx context.Context) []camera.Format {
	formats, err := s.driver.Formats(ctx, s.device)
	if err != nil {
		return []camera.Format{}
	}
	return formats
}

// Controls はコントロール一覧を返す（取得できない場合は空）
func (s *Source) Controls(ctx context.Context) []camera.Control {
	controls, err := s.driver.Controls(ctx, s.device)
	if err != nil {
		return []camera.Control{}
	}
	return controls
}

// SetControlByName は名前で指定したコントロールに値を書き込む
func (s *Source) SetControlByName(ctx context.Context, name string, value int64) error {
	controls, err := s.driver.Controls(ctx, s.device)
	if err != nil {
		return fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}

	control, ok := camera.FindControlByName(controls, name)
	if !ok {
		return fmt.Errorf("%w: '%s' (%s)", camera.ErrControlNotFound, name, s.device)
	}

	return s.setControl(ctx, control, value)
}

// SetControlByID はIDで指定したコントロールに値を書き込む
func (s *Source) SetControlByID(ctx context.Context, id uint64, value int64) error {
	controls, err := s.driver.Controls(ctx, s.device)
	if err != nil {
		return fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}

	control, ok := camera.FindControlByID(controls, id)
	if !ok {
		return fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, s.device)
	}

	return s.setControl(ctx, control, value)
}

// ControlValueByName は名前で指定したコントロールの現在値を読む
func (s *Source) ControlValueByName(ctx context.Context, name string) (int64, error) {
	controls, err := s.driver.Controls(ctx, s.device)
	if err != nil {
		return 0, fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}

	control, ok := camera.FindControlByName(controls, name)
	if !ok {
		return 0, fmt.Errorf("%w: '%s' (%s)", camera.ErrControlNotFound, name, s.device)
	}

	return s.driver.ControlValue(ctx, s.device, control.ID)
}

// ControlValueByID はIDで指定したコントロールの現在値を読む
func (s *Source) ControlValueByID(ctx context.Context, id uint64) (int64, error) {
	return s.driver.ControlValue(ctx, s.device, id)
}

// IsValid はデバイスがまだ開けるかチェックする
func (s *Source) IsValid(ctx context.Context) bool {
	_, err := s.driver.Info(ctx, s.device)
	return err == nil
}

// IsShareable はローカルデバイスを複数の利用者で共有できないため false
func (s *Source) IsShareable() bool {
	return false
}

// setControl は値域を検証してからドライバーに書き込む
func (s *Source) setControl(ctx context.Context, control camera.Control, value int64) error {
	if err := control.Configuration.Validate(value); err != nil {
		return err
	}

	if err := s.driver.SetControl(ctx, s.device, control.ID, value); err != nil {
		return fmt.Errorf("%s への書き込みに失敗: %w", s.device, err)
	}

	return nil
}
