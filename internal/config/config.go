// Package config loads the Lazarillo configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/lazarillo/internal/alert"
	"github.com/ayusman/lazarillo/internal/assistant"
	"github.com/ayusman/lazarillo/internal/detect"
	"github.com/ayusman/lazarillo/internal/risk"
	"github.com/ayusman/lazarillo/internal/speech"
)

// Config is the single configuration struct constructed at startup and
// passed by reference into the components.
type Config struct {
	Camera    CameraConfig    `mapstructure:"camera"`
	Detection DetectionConfig `mapstructure:"detection"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Alert     AlertConfig     `mapstructure:"alert"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
}

type CameraConfig struct {
	ID           int     `mapstructure:"id"`
	MotionThresh float64 `mapstructure:"motion_threshold"`
}

type DetectionConfig struct {
	Model         string  `mapstructure:"model"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	ScriptPath    string  `mapstructure:"script_path"`
}

type RiskConfig struct {
	HighAreaThreshold   float64 `mapstructure:"high_area_threshold"`
	MediumAreaThreshold float64 `mapstructure:"medium_area_threshold"`
	CenterTolerance     float64 `mapstructure:"center_tolerance"`
}

type AlertConfig struct {
	CooldownHigh   time.Duration `mapstructure:"cooldown_high"`
	CooldownMedium time.Duration `mapstructure:"cooldown_medium"`
}

type VoiceConfig struct {
	Language string  `mapstructure:"language"`
	Rate     float64 `mapstructure:"rate"`
	Volume   float64 `mapstructure:"volume"`
}

type GeminiConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	Model            string        `mapstructure:"model"`
	AnalysisCooldown time.Duration `mapstructure:"analysis_cooldown"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the configuration from lazarillo.yaml (working directory or
// ~/.lazarillo) and LAZARILLO_* environment variables, applying defaults
// for everything not set. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("lazarillo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".lazarillo"))
	}

	v.SetEnvPrefix("LAZARILLO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	thresholds := risk.DefaultThresholds()
	cooldowns := alert.DefaultCooldowns()
	voice := speech.DefaultConfig()
	gemini := assistant.DefaultConfig()
	detection := detect.DefaultConfig()

	v.SetDefault("camera.id", 0)
	v.SetDefault("camera.motion_threshold", 1.0)

	v.SetDefault("detection.model", detection.Model)
	v.SetDefault("detection.min_confidence", detection.MinConfidence)
	v.SetDefault("detection.script_path", "")

	v.SetDefault("risk.high_area_threshold", thresholds.HighArea)
	v.SetDefault("risk.medium_area_threshold", thresholds.MediumArea)
	v.SetDefault("risk.center_tolerance", thresholds.CenterTolerance)

	v.SetDefault("alert.cooldown_high", cooldowns.High)
	v.SetDefault("alert.cooldown_medium", cooldowns.Medium)

	v.SetDefault("voice.language", voice.Language)
	v.SetDefault("voice.rate", voice.Rate)
	v.SetDefault("voice.volume", 1.0)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", gemini.Model)
	v.SetDefault("gemini.analysis_cooldown", gemini.AnalysisCooldown)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("store.path", "")

	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	if c.Risk.MediumAreaThreshold <= 0 || c.Risk.HighAreaThreshold <= 0 {
		return fmt.Errorf("risk thresholds must be positive")
	}
	if c.Risk.MediumAreaThreshold > c.Risk.HighAreaThreshold {
		return fmt.Errorf("risk.medium_area_threshold must not exceed risk.high_area_threshold")
	}
	if c.Risk.CenterTolerance < 0 || c.Risk.CenterTolerance > 1 {
		return fmt.Errorf("risk.center_tolerance must be in [0, 1]")
	}
	if c.Alert.CooldownHigh <= 0 || c.Alert.CooldownMedium <= 0 {
		return fmt.Errorf("alert cooldowns must be positive")
	}
	if c.Alert.CooldownHigh > c.Alert.CooldownMedium {
		return fmt.Errorf("alert.cooldown_high must not exceed alert.cooldown_medium")
	}
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection.min_confidence must be in [0, 1]")
	}
	return nil
}

// Thresholds returns the risk classification thresholds.
func (c *Config) Thresholds() risk.Thresholds {
	return risk.Thresholds{
		HighArea:        c.Risk.HighAreaThreshold,
		MediumArea:      c.Risk.MediumAreaThreshold,
		CenterTolerance: c.Risk.CenterTolerance,
	}
}

// Cooldowns returns the alert scheduler cooldowns.
func (c *Config) Cooldowns() alert.Cooldowns {
	return alert.Cooldowns{
		High:   c.Alert.CooldownHigh,
		Medium: c.Alert.CooldownMedium,
	}
}

// StorePath returns the configured database path, defaulting to
// ~/.lazarillo/lazarillo.db.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".lazarillo", "lazarillo.db"), nil
}
