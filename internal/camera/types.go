package camera

import (
	"encoding/json"
	"fmt"
)

// Format はキャプチャフォーマットを表す
type Format struct {
	Encode string `json:"encode"` // エンコード（例: MJPG, YUYV, H264）
	Sizes  []Size `json:"sizes"`  // サポートされる解像度
}

// Size は解像度とフレーム間隔の組を表す
type Size struct {
	Width     uint32          `json:"width"`
	Height    uint32          `json:"height"`
	Intervals []FrameInterval `json:"intervals"`
}

// FrameInterval はフレーム間隔（秒 = Numerator / Denominator）
type FrameInterval struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// IntervalFromFPS はフレームレートからフレーム間隔を作る
func IntervalFromFPS(fps float64) FrameInterval {
	if fps <= 0 {
		return FrameInterval{}
	}
	if fps == float64(uint32(fps)) {
		return FrameInterval{Numerator: 1, Denominator: uint32(fps)}
	}
	return FrameInterval{Numerator: 1000, Denominator: uint32(fps*1000 + 0.5)}
}

// ControlState はコントロールの状態
type ControlState struct {
	// IsInactive はバックエンドが現在この操作を許可していないことを示す
	IsInactive bool `json:"is_inactive"`
}

// Control は調整可能なパラメーター1つのスナップショット
type Control struct {
	ID            uint64       // バックエンドが割り当てたID（ソース内で一意）
	Name          string       // 表示名
	Configuration ControlType  // 値の種類とデフォルト値
	State         ControlState // 状態
}

// ControlType はコントロールの値の種類（Bool / Slider / Menu）
type ControlType interface {
	// DefaultValue はデフォルト値を整数で返す
	DefaultValue() int64
	// Validate は値がこのコントロールの値域に収まるか検証する
	Validate(value int64) error

	kind() string
}

// BoolControl はオン/オフのコントロール
type BoolControl struct {
	Default bool `json:"default"`
}

// DefaultValue はデフォルト値を 0/1 で返す
func (b BoolControl) DefaultValue() int64 {
	if b.Default {
		return 1
	}
	return 0
}

// Validate は 0 か 1 のみを受け付ける
func (b BoolControl) Validate(value int64) error {
	if value != 0 && value != 1 {
		return fmt.Errorf("%w: %d (0 または 1)", ErrInvalidValue, value)
	}
	return nil
}

func (BoolControl) kind() string { return "bool" }

// SliderControl は範囲付きの数値コントロール
type SliderControl struct {
	Default int64 `json:"default"`
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	Step    int64 `json:"step"`
}

// DefaultValue はデフォルト値を返す
func (s SliderControl) DefaultValue() int64 {
	return s.Default
}

// Validate は値が [Min, Max] に収まるか検証する
func (s SliderControl) Validate(value int64) error {
	if value < s.Min || value > s.Max {
		return fmt.Errorf("%w: %d (範囲 %d..%d)", ErrInvalidValue, value, s.Min, s.Max)
	}
	return nil
}

func (SliderControl) kind() string { return "slider" }

// MenuOption はメニューの選択肢
type MenuOption struct {
	Value int64  `json:"value"`
	Name  string `json:"name"`
}

// MenuControl は選択肢から1つを選ぶコントロール
type MenuControl struct {
	Default int64        `json:"default"`
	Options []MenuOption `json:"options"`
}

// DefaultValue はデフォルト値を返す
func (m MenuControl) DefaultValue() int64 {
	return m.Default
}

// Validate は値が選択肢に含まれるか検証する
func (m MenuControl) Validate(value int64) error {
	for _, option := range m.Options {
		if option.Value == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %d (選択肢にない値)", ErrInvalidValue, value)
}

func (MenuControl) kind() string { return "menu" }

// FindControlByID はIDでコントロールを検索する
func FindControlByID(controls []Control, id uint64) (Control, bool) {
	for _, control := range controls {
		if control.ID == id {
			return control, true
		}
	}
	return Control{}, false
}

// FindControlByName は名前でコントロールを検索する
func FindControlByName(controls []Control, name string) (Control, bool) {
	for _, control := range controls {
		if control.Name == name {
			return control, true
		}
	}
	return Control{}, false
}

type controlJSON struct {
	ID            uint64                 `json:"id"`
	Name          string                 `json:"name"`
	Configuration map[string]ControlType `json:"configuration"`
	State         ControlState           `json:"state"`
}

// MarshalJSON は Configuration を種類名でタグ付けして出力する
// 例: {"configuration":{"slider":{"default":128,...}}}
func (c Control) MarshalJSON() ([]byte, error) {
	out := controlJSON{
		ID:    c.ID,
		Name:  c.Name,
		State: c.State,
	}
	if c.Configuration != nil {
		out.Configuration = map[string]ControlType{c.Configuration.kind(): c.Configuration}
	}
	return json.Marshal(out)
}
