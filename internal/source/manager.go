package source

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"camhub/internal/camera"
	"camhub/internal/metrics"
)

// Manager はソースの検索とコントロール操作を行う
//
// 検索のたびに全種類の検出をやり直すので、取り外されたデバイスは次の呼び出しで見えなくなる。
type Manager struct {
	registry *Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewManager は新しいManagerを作成する
func NewManager(registry *Registry, logger *zap.Logger, collector *metrics.Collector) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		registry: registry,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "source_manager")),
	}
}

// CamerasAvailable は全種類のソースを検出順に返す（重複は除去しない）
func (m *Manager) CamerasAvailable(ctx context.Context) []VideoSourceType {
	return m.registry.All(ctx)
}

// GetVideoSource は識別文字列に一致する最初のソースを返す
func (m *Manager) GetVideoSource(ctx context.Context, identity string) (VideoSourceType, error) {
	sources := m.registry.All(ctx)
	identities := lo.Map(sources, func(v VideoSourceType, _ int) string {
		return v.SourceString()
	})

	if duplicates := lo.FindDuplicates(identities); len(duplicates) > 0 {
		m.logger.Warn("識別文字列が重複しています（検出順で最初のソースを使用）",
			zap.Strings("duplicates", duplicates))
	}

	found, ok := lo.Find(sources, func(v VideoSourceType) bool {
		return v.SourceString() == identity
	})
	if !ok {
		return VideoSourceType{}, &NotFoundError{Attempted: identity, Available: identities}
	}
	return found, nil
}

// SetControl はソースを検索し、IDで指定したコントロールに値を書き込む
func (m *Manager) SetControl(ctx context.Context, identity string, controlID uint64, value int64) error {
	source, err := m.GetVideoSource(ctx, identity)
	if err != nil {
		return err
	}

	err = source.Inner().SetControlByID(ctx, controlID, value)
	m.metrics.RecordControlWrite(string(source.Kind()), err)
	if err != nil {
		m.logger.Debug("コントロールの書き込みに失敗",
			zap.String("source", identity),
			zap.Uint64("id", controlID),
			zap.Int64("value", value),
			zap.Error(err),
		)
		return controlError(ctx, source.Inner(), controlID, err)
	}

	m.logger.Debug("コントロールを書き込み",
		zap.String("source", identity),
		zap.Uint64("id", controlID),
		zap.Int64("value", value),
	)
	return nil
}

// ControlValue はソースを検索し、IDで指定したコントロールの現在値を返す
func (m *Manager) ControlValue(ctx context.Context, identity string, controlID uint64) (int64, error) {
	source, err := m.GetVideoSource(ctx, identity)
	if err != nil {
		return 0, err
	}

	value, err := source.Inner().ControlValueByID(ctx, controlID)
	if err != nil {
		return 0, controlError(ctx, source.Inner(), controlID, err)
	}
	return value, nil
}

// controlError は失敗したコントロールの名前を引いてControlErrorにする
func controlError(ctx context.Context, inner camera.VideoSource, controlID uint64, err error) *camera.ControlError {
	controlErr := &camera.ControlError{ID: controlID, Err: err}
	if control, ok := camera.FindControlByID(inner.Controls(ctx), controlID); ok {
		controlErr.Name = control.Name
	}
	return controlErr
}

// ResetControls はアクティブな全コントロールを既定値に戻す
//
// 1つのコントロールの失敗で中断せず、全てを試してから失敗を *ResetError にまとめて返す。
// 非アクティブなコントロールは書き込まない。検索の失敗も1件の *ResetError として返す。
func (m *Manager) ResetControls(ctx context.Context, identity string) error {
	source, err := m.GetVideoSource(ctx, identity)
	if err != nil {
		m.metrics.RecordReset(1)
		return &ResetError{Source: identity, Errors: []error{err}}
	}

	inner := source.Inner()
	var resetErrors []error
	for _, control := range inner.Controls(ctx) {
		if control.State.IsInactive {
			continue
		}

		if err := inner.SetControlByID(ctx, control.ID, control.Configuration.DefaultValue()); err != nil {
			resetErrors = append(resetErrors, &camera.ControlError{
				Name: control.Name,
				ID:   control.ID,
				Err:  err,
			})
		}
	}

	m.metrics.RecordReset(len(resetErrors))
	if len(resetErrors) > 0 {
		m.logger.Error("コントロールのリセットに失敗",
			zap.String("source", identity),
			zap.Int("failures", len(resetErrors)),
			zap.Errors("errors", resetErrors),
		)
		return &ResetError{Source: identity, Errors: resetErrors}
	}

	m.logger.Info("コントロールをリセット", zap.String("source", identity))
	return nil
}
