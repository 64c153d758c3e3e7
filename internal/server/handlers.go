package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"camhub/internal/camera"
	"camhub/internal/source"
)

// ErrorResponse はエラー応答
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceInfo はソース一覧の1件
type SourceInfo struct {
	Name      string           `json:"name"`
	Source    string           `json:"source"`
	Kind      source.Kind      `json:"kind"`
	Shareable bool             `json:"shareable"`
	Valid     bool             `json:"valid"`
	Target    string           `json:"target,omitempty"`  // エイリアスの転送先
	Command   []string         `json:"command,omitempty"` // パイプラインのffmpegコマンド
	Formats   []camera.Format  `json:"formats"`
	Controls  []camera.Control `json:"controls"`
}

// ControlValue はコントロール値の読み書きで使う
type ControlValue struct {
	Source string `json:"source"`
	ID     uint64 `json:"id"`
	Value  int64  `json:"value"`
}

// setControlRequest は POST /api/control の本文
type setControlRequest struct {
	Source string  `json:"source" binding:"required"`
	ID     *uint64 `json:"id" binding:"required"`
	Value  *int64  `json:"value" binding:"required"`
}

// resetControlsRequest は POST /api/reset_controls の本文
type resetControlsRequest struct {
	Source string `json:"source" binding:"required"`
}

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleSources は検出された全ソースを返す
func (s *Server) handleSources(c *gin.Context) {
	ctx := c.Request.Context()
	sources := s.manager.CamerasAvailable(ctx)

	c.JSON(http.StatusOK, lo.Map(sources, func(v source.VideoSourceType, _ int) SourceInfo {
		inner := v.Inner()
		info := SourceInfo{
			Name:      inner.Name(),
			Source:    inner.SourceString(),
			Kind:      v.Kind(),
			Shareable: inner.IsShareable(),
			Valid:     inner.IsValid(ctx),
			Formats:   inner.Formats(ctx),
			Controls:  inner.Controls(ctx),
		}
		if p, ok := v.Pipeline(); ok {
			info.Command = p.Command()
		}
		if r, ok := v.Redirect(); ok {
			info.Target = r.Target()
		}
		return info
	}))
}

// handleGetControl はコントロールの現在値を返す
func (s *Server) handleGetControl(c *gin.Context) {
	identity := c.Query("source")
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if identity == "" || err != nil {
		s.badRequest(c, "source と数値の id を指定してください")
		return
	}

	value, err := s.manager.ControlValue(c.Request.Context(), identity, id)
	if err != nil {
		s.controlFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, ControlValue{Source: identity, ID: id, Value: value})
}

// handleSetControl はコントロールに値を書き込む
func (s *Server) handleSetControl(c *gin.Context) {
	var req setControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	if err := s.manager.SetControl(c.Request.Context(), req.Source, *req.ID, *req.Value); err != nil {
		s.controlFailure(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleResetControls はソースの全コントロールを既定値に戻す
func (s *Server) handleResetControls(c *gin.Context) {
	var req resetControlsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	err := s.manager.ResetControls(c.Request.Context(), req.Source)
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	_ = c.Error(err)
	errs := source.ResetErrors(err)
	details := lo.Map(errs, func(e error, _ int) string { return e.Error() })

	// 検索の失敗はNotFoundError自身が1件だけ入る
	var notFound *source.NotFoundError
	if len(errs) == 1 {
		notFound, _ = errs[0].(*source.NotFoundError)
	}
	if notFound != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "source_not_found",
			Message:   notFound.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	s.logger.Warn("コントロールのリセットに一部失敗",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("source", req.Source),
		zap.Int("failures", len(errs)),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "reset_failed",
		Message:   "一部のコントロールをリセットできませんでした",
		Details:   details,
		Timestamp: time.Now(),
	})
}

// controlFailure はコントロール操作のエラーを応答に変換する
func (s *Server) controlFailure(c *gin.Context, err error) {
	_ = c.Error(err)

	// バックエンドのENOENTもos.ErrNotExistに一致するため型で判定する
	var notFound *source.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "source_not_found",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	s.logger.Debug("コントロールの操作に失敗",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	)
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:     "control_error",
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "bad_request",
		Message:   message,
		Timestamp: time.Now(),
	})
}
