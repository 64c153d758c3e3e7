//go:build linux

package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vladimirvivien/go4vl/v4l2"

	"camhub/internal/camera"
)

func TestControlConfiguration(t *testing.T) {
	tests := []struct {
		name string
		ctrl v4l2.Control
		want camera.ControlType
		ok   bool
	}{
		{
			name: "整数",
			ctrl: v4l2.Control{Type: ctrlTypeInteger, Minimum: -64, Maximum: 64, Step: 1, Default: 0},
			want: camera.SliderControl{Default: 0, Min: -64, Max: 64, Step: 1},
			ok:   true,
		},
		{
			name: "真偽値",
			ctrl: v4l2.Control{Type: ctrlTypeBoolean, Minimum: 0, Maximum: 1, Step: 1, Default: 1},
			want: camera.BoolControl{Default: true},
			ok:   true,
		},
		{
			name: "64bit整数は除外",
			ctrl: v4l2.Control{Type: ctrlTypeInteger64, Minimum: -1, Maximum: -1, Step: 1},
			ok:   false,
		},
		{
			name: "未対応の種別",
			ctrl: v4l2.Control{Type: 6},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := controlConfiguration(tt.ctrl)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
