package local

import (
	"regexp"
	"strconv"
	"strings"

	"camhub/internal/camera"
)

var (
	// 例: "brightness 0x00980900 (int)    : min=-64 max=64 step=1 default=0 value=0"
	controlLinePattern = regexp.MustCompile(`^\s*(\w+)\s+0x([0-9a-fA-F]+)\s+\(([\w-]+)\)\s*:\s*(.*)$`)

	// 例: "1: 50 Hz"
	menuItemPattern = regexp.MustCompile(`^\s*(-?\d+):\s*(.*)$`)

	// 例: "[0]: 'MJPG' (Motion-JPEG, compressed)"
	formatLinePattern = regexp.MustCompile(`^\s*\[\d+\]:\s*'([^']+)'`)

	// 例: "Size: Discrete 1280x720"
	sizeLinePattern = regexp.MustCompile(`^\s*Size:\s*Discrete\s+(\d+)x(\d+)`)

	// 例: "Interval: Discrete 0.033s (30.000 fps)"
	intervalLinePattern = regexp.MustCompile(`^\s*Interval:\s*Discrete\s+\S+\s+\(([\d.]+)\s+fps\)`)
)

// parseInfo は "Key : Value" 形式の行をマップにする
func parseInfo(output string) map[string]string {
	info := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, exists := info[key]; exists {
			continue
		}
		info[key] = strings.TrimSpace(value)
	}
	return info
}

// parseFormats はv4l2-ctl --list-formats-extの出力を解析する
func parseFormats(output string) []camera.Format {
	var formats []camera.Format

	for _, line := range strings.Split(output, "\n") {
		if m := formatLinePattern.FindStringSubmatch(line); m != nil {
			formats = append(formats, camera.Format{Encode: m[1]})
			continue
		}
		if len(formats) == 0 {
			continue
		}
		format := &formats[len(formats)-1]

		if m := sizeLinePattern.FindStringSubmatch(line); m != nil {
			width, _ := strconv.ParseUint(m[1], 10, 32)
			height, _ := strconv.ParseUint(m[2], 10, 32)
			format.Sizes = append(format.Sizes, camera.Size{Width: uint32(width), Height: uint32(height)})
			continue
		}

		if m := intervalLinePattern.FindStringSubmatch(line); m != nil && len(format.Sizes) > 0 {
			fps, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			size := &format.Sizes[len(format.Sizes)-1]
			size.Intervals = append(size.Intervals, camera.IntervalFromFPS(fps))
		}
	}

	return formats
}

// parseControls はv4l2-ctl --list-ctrls-menusの出力を解析する
// ボタン・文字列・ビットマスク型のコントロールは対象外
func parseControls(output string) []camera.Control {
	var controls []camera.Control
	lastMenu := -1

	for _, line := range strings.Split(output, "\n") {
		if m := controlLinePattern.FindStringSubmatch(line); m != nil {
			lastMenu = -1

			id, err := strconv.ParseUint(m[2], 16, 64)
			if err != nil {
				continue
			}
			fields, flags := parseControlFields(m[4])

			var configuration camera.ControlType
			switch m[3] {
			case "int", "int64":
				configuration = camera.SliderControl{
					Default: fields["default"],
					Min:     fields["min"],
					Max:     fields["max"],
					Step:    fields["step"],
				}
			case "bool":
				configuration = camera.BoolControl{Default: fields["default"] != 0}
			case "menu", "intmenu":
				configuration = camera.MenuControl{Default: fields["default"]}
				lastMenu = len(controls)
			default:
				continue
			}

			controls = append(controls, camera.Control{
				ID:            id,
				Name:          m[1],
				Configuration: configuration,
				State:         camera.ControlState{IsInactive: containsFlag(flags, "inactive")},
			})
			continue
		}

		// メニュー項目は直前のメニューコントロールに属する
		if lastMenu < 0 {
			continue
		}
		if m := menuItemPattern.FindStringSubmatch(line); m != nil {
			value, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			menu := controls[lastMenu].Configuration.(camera.MenuControl)
			menu.Options = append(menu.Options, camera.MenuOption{Value: value, Name: strings.TrimSpace(m[2])})
			controls[lastMenu].Configuration = menu
		}
	}

	return controls
}

// parseControlFields は "min=0 max=255 ... flags=inactive, volatile" を分解する
func parseControlFields(rest string) (map[string]int64, []string) {
	fields := make(map[string]int64)
	var flags []string

	if idx := strings.Index(rest, "flags="); idx >= 0 {
		for _, flag := range strings.Split(rest[idx+len("flags="):], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				flags = append(flags, flag)
			}
		}
		rest = rest[:idx]
	}

	for _, token := range strings.Fields(rest) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		fields[key] = n
	}

	return fields, flags
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
