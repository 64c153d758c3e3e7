package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"camhub/internal/camera/local"
	"camhub/internal/camera/redirect"
	"camhub/internal/logging"
)

// ConfigPathEnv は設定ファイルのパスを指定する環境変数
const ConfigPathEnv = "CAMHUB_CONFIG"

// ローカルデバイスのドライバー
const (
	DriverCtl    = "v4l2-ctl"
	DriverNative = "native"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Local    LocalConfig    `yaml:"local"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Redirect RedirectConfig `yaml:"redirect"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// LogConfig はログの設定
type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console形式で出力する
}

// LocalConfig はローカルデバイスの設定
type LocalConfig struct {
	Driver         string        `yaml:"driver"`          // v4l2-ctl または native
	DevicePattern  string        `yaml:"device_pattern"`  // デバイスパスのglobパターン
	CommandTimeout time.Duration `yaml:"command_timeout"` // v4l2-ctl の実行タイムアウト
}

// PipelineConfig はffmpegパイプラインの設定
type PipelineConfig struct {
	FFmpegPath string   `yaml:"ffmpeg_path"`
	Patterns   []string `yaml:"patterns"` // 公開するテストパターン (例: smptebars)
	Displays   []string `yaml:"displays"` // キャプチャするX11ディスプレイ (例: :0)
}

// RedirectConfig はエイリアスの設定
type RedirectConfig struct {
	Aliases []redirect.Alias `yaml:"aliases"`
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Local: LocalConfig{
			Driver:         DriverCtl,
			DevicePattern:  local.DefaultDevicePattern,
			CommandTimeout: 5 * time.Second,
		},
		Pipeline: PipelineConfig{
			FFmpegPath: "ffmpeg",
		},
	}
}

// Load は設定を読み込む
// pathが空の場合は CAMHUB_CONFIG を参照し、それも空ならデフォルト値を使う。
// 環境変数 SERVER_HOST, PORT, LOG_LEVEL はファイルの値より優先する。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗 (%s): %w", path, err)
		}
	}

	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("タイムアウトが負の値です")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Local.Driver {
	case DriverCtl, DriverNative:
	default:
		return fmt.Errorf("無効なドライバー: %s", c.Local.Driver)
	}
	if c.Local.CommandTimeout <= 0 {
		return fmt.Errorf("コマンドタイムアウトが設定されていません")
	}

	// エイリアス同士の重複は検索結果が曖昧になるので拒否する
	seen := make(map[string]bool, len(c.Redirect.Aliases))
	for _, alias := range c.Redirect.Aliases {
		if alias.Source == "" {
			continue
		}
		if seen[alias.Source] {
			return fmt.Errorf("エイリアスが重複しています: %s", alias.Source)
		}
		seen[alias.Source] = true
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoggingConfig はロガーの設定を返す
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Development: c.Log.Development}
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
