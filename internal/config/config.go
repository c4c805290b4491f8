package config

import (
	"errors"
	"net/url"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Ollama OllamaConfig `mapstructure:"ollama"`
	Static StaticConfig `mapstructure:"static"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 0 表示不限制，流式响应需要
}

// OllamaConfig 推理后端配置
type OllamaConfig struct {
	BaseURL string        `mapstructure:"base_url"` // 例如 http://localhost:11434
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"` // 单次请求（含流式读取）的上限，0 表示不限制
}

// StaticConfig 前端静态资源配置
type StaticConfig struct {
	Dir   string `mapstructure:"dir"`   // 挂载到 /static
	Index string `mapstructure:"index"` // GET / 返回的 HTML 文件
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	u, err := url.Parse(c.Ollama.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("invalid ollama base_url, must be an absolute http(s) URL")
	}

	if c.Ollama.Model == "" {
		return errors.New("ollama model is required")
	}

	if c.Ollama.Timeout < 0 {
		return errors.New("ollama timeout must not be negative")
	}

	return nil
}
