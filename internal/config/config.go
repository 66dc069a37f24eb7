package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Пути ко входным и выходным данным
type Paths struct {
	InputDir     string `mapstructure:"input_dir"`
	MapsDir      string `mapstructure:"maps_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	UnderlaysDir string `mapstructure:"underlays_dir"`
	PresetsFile  string `mapstructure:"presets_file"`
	OffsetsFile  string `mapstructure:"offsets_file"`
	OutputDir    string `mapstructure:"output_dir"`
}

// Настройки выравнивания
type Align struct {
	// Если соседние картинки одного размера, считаем что карта не сдвинулась
	SkipSameDimensions bool `mapstructure:"skip_same_dimensions"`
	// auto, spatial, fft или gocv (только со сборкой -tags gocv)
	Matcher string `mapstructure:"matcher"`
}

// Настройки обрезки
type Crop struct {
	DefaultTemplate   string  `mapstructure:"default_template"`
	EnableInfoOnImage bool    `mapstructure:"enable_info_on_image"`
	CaptionHeight     int     `mapstructure:"caption_height"`
	CaptionFont       string  `mapstructure:"caption_font"`
	CaptionFontSize   float64 `mapstructure:"caption_font_size"`
	CaptionColor      string  `mapstructure:"caption_color"`
	CaptionBackground string  `mapstructure:"caption_background"`
	UnderlayDarken    int     `mapstructure:"underlay_darken"`
}

// Настройки утилиты пресетов
type Preset struct {
	EditorPath string `mapstructure:"editor_path"`
}

// Настройки базы данных
type Database struct {
	SaveToDB int    `mapstructure:"save_to_db"`
	DSN      string `mapstructure:"dsn"`
}

// Настройки захвата экрана
type Capture struct {
	Display    int    `mapstructure:"display"`
	NameFormat string `mapstructure:"name_format"`
	TrimBorder bool   `mapstructure:"trim_border"`
}

// Настройки веб-просмотрщика
type WebViewer struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Основная структура конфигурации
type Config struct {
	LogFilePath string    `mapstructure:"log_file_path"`
	LogLevel    string    `mapstructure:"log_level"`
	Paths       Paths     `mapstructure:"paths"`
	Align       Align     `mapstructure:"align"`
	Crop        Crop      `mapstructure:"crop"`
	Preset      Preset    `mapstructure:"preset"`
	Database    Database  `mapstructure:"database"`
	Capture     Capture   `mapstructure:"capture"`
	WebViewer   WebViewer `mapstructure:"web_viewer"`
}

// flagKeys связывает имена флагов командной строки с ключами конфигурации
var flagKeys = map[string]string{
	"maps-dir":             "paths.maps_dir",
	"templates-dir":        "paths.templates_dir",
	"underlays-dir":        "paths.underlays_dir",
	"presets":              "paths.presets_file",
	"offsets":              "paths.offsets_file",
	"output-dir":           "paths.output_dir",
	"skip-same-dimensions": "align.skip_same_dimensions",
	"matcher":              "align.matcher",
	"template":             "crop.default_template",
	"info":                 "crop.enable_info_on_image",
	"editor":               "preset.editor_path",
	"save-to-db":           "database.save_to_db",
	"dsn":                  "database.dsn",
	"display":              "capture.display",
	"trim-border":          "capture.trim_border",
	"host":                 "web_viewer.host",
	"port":                 "web_viewer.port",
	"log-file":             "log_file_path",
	"log-level":            "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_file_path", filepath.Join("logs", "mapcrop.log"))
	v.SetDefault("log_level", "info")

	v.SetDefault("paths.input_dir", "input")
	v.SetDefault("paths.output_dir", "output")

	v.SetDefault("align.skip_same_dimensions", true)
	v.SetDefault("align.matcher", "auto")

	v.SetDefault("crop.enable_info_on_image", false)
	v.SetDefault("crop.caption_height", 35)
	v.SetDefault("crop.caption_font_size", 24.0)
	v.SetDefault("crop.caption_color", "lightgray")
	v.SetDefault("crop.caption_background", "black")
	v.SetDefault("crop.underlay_darken", 200)

	v.SetDefault("database.save_to_db", 0)
	v.SetDefault("database.dsn", "root:root@tcp(127.0.0.1:3306)/mapcrop?parseTime=true")

	v.SetDefault("capture.display", 0)
	v.SetDefault("capture.name_format", "2006-01-02_150405")

	v.SetDefault("web_viewer.host", "127.0.0.1")
	v.SetDefault("web_viewer.port", "8080")
}

// InitConfig читает config.yaml (если есть), переменные окружения MAPCROP_*
// и флаги командной строки. Флаги имеют наивысший приоритет.
func InitConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MAPCROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// явно указанный файл обязан существовать
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	c.fillDerivedPaths()

	return &c, nil
}

// fillDerivedPaths заполняет незаданные пути относительно input_dir
func (c *Config) fillDerivedPaths() {
	in := c.Paths.InputDir
	if c.Paths.MapsDir == "" {
		c.Paths.MapsDir = filepath.Join(in, "maps")
	}
	if c.Paths.TemplatesDir == "" {
		c.Paths.TemplatesDir = filepath.Join(in, "crops", "templates")
	}
	if c.Paths.UnderlaysDir == "" {
		c.Paths.UnderlaysDir = filepath.Join(in, "underlays")
	}
	if c.Paths.PresetsFile == "" {
		c.Paths.PresetsFile = filepath.Join(in, "crops", "presets.json")
	}
	if c.Paths.OffsetsFile == "" {
		c.Paths.OffsetsFile = filepath.Join(in, "origin_offsets.json")
	}
}
