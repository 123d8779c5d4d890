// Package config loads markcanvas settings from markcanvas.json via viper.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "markcanvas.json"

// Engine holds interaction tolerances and cosmetic defaults.
type Engine struct {
	LineWidth       float64 `json:"lineWidth" mapstructure:"lineWidth"`
	HandleRadius    float64 `json:"handleRadius" mapstructure:"handleRadius"`
	CloseRadius     float64 `json:"closeRadius" mapstructure:"closeRadius"`
	LineMinLength   float64 `json:"lineMinLength" mapstructure:"lineMinLength"`
	CircleMinRadius float64 `json:"circleMinRadius" mapstructure:"circleMinRadius"`
	ZoomIn          float64 `json:"zoomIn" mapstructure:"zoomIn"`
	ZoomOut         float64 `json:"zoomOut" mapstructure:"zoomOut"`
	MinZoom         float64 `json:"minZoom" mapstructure:"minZoom"`
	MaxZoom         float64 `json:"maxZoom" mapstructure:"maxZoom"`
	PanKey          string  `json:"panKey" mapstructure:"panKey"`
	DefaultColor    string  `json:"defaultColor" mapstructure:"defaultColor"`
}

// Guide holds the crosshair overlay settings.
type Guide struct {
	Enabled bool    `json:"enabled" mapstructure:"enabled"`
	Dash    float64 `json:"dash" mapstructure:"dash"`
	Period  float64 `json:"period" mapstructure:"period"`
	Color   string  `json:"color" mapstructure:"color"`
}

// Store holds the sqlite annotation store settings.
type Store struct {
	Path string `json:"path" mapstructure:"path"`
}

// Config is the typed view of all settings.
type Config struct {
	LogLevel string `json:"logLevel" mapstructure:"logLevel"`
	Engine   Engine `json:"engine" mapstructure:"engine"`
	Guide    Guide  `json:"guide" mapstructure:"guide"`
	Store    Store  `json:"store" mapstructure:"store"`
}

// SetDefaults registers default values.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("engine.lineWidth", 2.0)
	viper.SetDefault("engine.handleRadius", 8.0)
	viper.SetDefault("engine.closeRadius", 8.0)
	viper.SetDefault("engine.lineMinLength", 30.0)
	viper.SetDefault("engine.circleMinRadius", 5.0)
	viper.SetDefault("engine.zoomIn", 1.1)
	viper.SetDefault("engine.zoomOut", 0.9)
	viper.SetDefault("engine.minZoom", 0.01)
	viper.SetDefault("engine.maxZoom", 100.0)
	viper.SetDefault("engine.panKey", "Space")
	viper.SetDefault("engine.defaultColor", "#ff0000")

	viper.SetDefault("guide.enabled", true)
	viper.SetDefault("guide.dash", 10.0)
	viper.SetDefault("guide.period", 15.0)
	viper.SetDefault("guide.color", "rgba(255,255,255,0.8)")

	viper.SetDefault("store.path", "")
}

// Load sets defaults and reads markcanvas.json from configDir.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName("markcanvas")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether a Load error only means the file is absent.
func IsNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// Get returns the current settings.
func Get() Config {
	return Config{
		LogLevel: viper.GetString("logLevel"),
		Engine: Engine{
			LineWidth:       viper.GetFloat64("engine.lineWidth"),
			HandleRadius:    viper.GetFloat64("engine.handleRadius"),
			CloseRadius:     viper.GetFloat64("engine.closeRadius"),
			LineMinLength:   viper.GetFloat64("engine.lineMinLength"),
			CircleMinRadius: viper.GetFloat64("engine.circleMinRadius"),
			ZoomIn:          viper.GetFloat64("engine.zoomIn"),
			ZoomOut:         viper.GetFloat64("engine.zoomOut"),
			MinZoom:         viper.GetFloat64("engine.minZoom"),
			MaxZoom:         viper.GetFloat64("engine.maxZoom"),
			PanKey:          viper.GetString("engine.panKey"),
			DefaultColor:    viper.GetString("engine.defaultColor"),
		},
		Guide: Guide{
			Enabled: viper.GetBool("guide.enabled"),
			Dash:    viper.GetFloat64("guide.dash"),
			Period:  viper.GetFloat64("guide.period"),
			Color:   viper.GetString("guide.color"),
		},
		Store: Store{
			Path: viper.GetString("store.path"),
		},
	}
}

// Default returns the settings with only defaults applied.
func Default() Config {
	SetDefaults()
	return Get()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// Set overrides a config value, as flags do.
func Set(key string, value interface{}) {
	viper.Set(key, value)
}
