// Package config собирает и проверяет настройки запуска.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	app "line-inspector/internal/application"
	"line-inspector/internal/domain/entity"
	"line-inspector/internal/infrastructure/mqtt"
	"line-inspector/internal/infrastructure/vision"
)

// EnvPrefix префикс переменных окружения, повторяющих флаги.
const EnvPrefix = "INSPECTOR"

// Ключи настроек совпадают с именами флагов.
const (
	KeyReference    = "reference"
	KeyVideo        = "video"
	KeyDimension    = "dimension"
	KeyFolder       = "folder"
	KeySpeed        = "speed"
	KeyMulti        = "multi"
	KeyThreshold    = "threshold"
	KeyMaxArea      = "max-area"
	KeyFieldOfView  = "fov"
	KeyCreateOutput = "create-output"
	KeySaveRegions  = "save-regions"
	KeyMetricsAddr  = "metrics-addr"
	KeyMQTTBroker   = "mqtt-broker"
	KeyMQTTTopic    = "mqtt-topic"
	KeyJournal      = "journal"
	KeyLogLevel     = "log-level"
)

// TelegramConfig настройки уведомлений, только из окружения.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Enabled сообщает, заданы ли токен и чат.
func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// MQTTConfig настройки публикации событий.
type MQTTConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

// Config неизменяемые настройки запуска.
type Config struct {
	Reference    string
	Feeds        []string
	Width        int
	Height       int
	Folder       string
	Speed        int // м/мин
	Multi        bool
	Threshold    float64
	MaxArea      float64 // 0 - без фильтра
	FieldOfView  float64 // м
	CreateOutput bool
	SaveRegions  bool
	MetricsAddr  string
	Journal      string
	LogLevel     string
	MQTT         MQTTConfig
	Telegram     TelegramConfig
	SentryDSN    string
}

// NewViper создаёт viper с окружением INSPECTOR_*.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults задаёт значения по умолчанию для необязательных ключей.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyThreshold, vision.DefaultSimilarityThreshold)
	v.SetDefault(KeyFieldOfView, app.DefaultFieldOfView)
	v.SetDefault(KeyMQTTTopic, mqtt.DefaultTopic)
	v.SetDefault(KeyLogLevel, "info")
}

// LoadDotEnv подгружает .env, если он есть.
func LoadDotEnv(files ...string) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load(files...)
}

// Load читает настройки из viper (флаги и INSPECTOR_*) и секреты из окружения.
func Load(v *viper.Viper) (*Config, error) {
	width, height, err := ParseDimension(v.GetString(KeyDimension))
	if err != nil {
		return nil, err
	}

	multi, err := parseBool(v.GetString(KeyMulti))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", KeyMulti, err)
	}

	cfg := &Config{
		Reference:    strings.TrimSpace(v.GetString(KeyReference)),
		Feeds:        ParseFeeds(v.GetString(KeyVideo)),
		Width:        width,
		Height:       height,
		Folder:       strings.TrimSpace(v.GetString(KeyFolder)),
		Speed:        v.GetInt(KeySpeed),
		Multi:        multi,
		Threshold:    v.GetFloat64(KeyThreshold),
		MaxArea:      v.GetFloat64(KeyMaxArea),
		FieldOfView:  v.GetFloat64(KeyFieldOfView),
		CreateOutput: v.GetBool(KeyCreateOutput),
		SaveRegions:  v.GetBool(KeySaveRegions),
		MetricsAddr:  v.GetString(KeyMetricsAddr),
		Journal:      v.GetString(KeyJournal),
		LogLevel:     v.GetString(KeyLogLevel),
		MQTT: MQTTConfig{
			Broker:   v.GetString(KeyMQTTBroker),
			Topic:    v.GetString(KeyMQTTTopic),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
		},
		Telegram:  TelegramConfig{Token: os.Getenv("TELEGRAM_TOKEN")},
		SentryDSN: os.Getenv("SENTRY_DSN"),
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID %q: %w", raw, entity.ErrConfiguration)
		}
		cfg.Telegram.ChatID = id
	}

	// Отрицательная площадь в старых скриптах означала "без фильтра"
	if cfg.MaxArea < 0 {
		cfg.MaxArea = 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек. Все ошибки оборачивают entity.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Reference == "" {
		add("--%s is required", KeyReference)
	} else if info, err := os.Stat(c.Reference); err != nil {
		add("reference image %s: %v", c.Reference, err)
	} else if info.IsDir() {
		add("reference image %s is a directory", c.Reference)
	}

	if len(c.Feeds) == 0 {
		add("--%s is required", KeyVideo)
	}
	if !c.Multi && len(c.Feeds) > 1 {
		add("%d feeds given, set --%s to use several feeds", len(c.Feeds), KeyMulti)
	}
	if c.Width <= 0 || c.Height <= 0 {
		add("--%s must be positive, got %dx%d", KeyDimension, c.Width, c.Height)
	}
	if c.Folder == "" {
		add("--%s is required", KeyFolder)
	}
	if c.Speed <= 0 {
		add("--%s must be a positive integer (m/min), got %d", KeySpeed, c.Speed)
	}
	if !finite(c.FieldOfView) || c.FieldOfView <= 0 {
		add("--%s must be positive, got %g", KeyFieldOfView, c.FieldOfView)
	}
	if !finite(c.Threshold) || c.Threshold <= -1 || c.Threshold > 1 {
		add("--%s must be in (-1, 1], got %g", KeyThreshold, c.Threshold)
	}
	if math.IsNaN(c.MaxArea) {
		add("--%s must be a number, got %g", KeyMaxArea, c.MaxArea)
	} else if c.MaxArea < 0 {
		add("--%s must not be negative, got %g", KeyMaxArea, c.MaxArea)
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		add("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", entity.ErrConfiguration, errors.Join(errs...))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// ParseDimension разбирает "W,H" (допускается также "WxH").
func ParseDimension(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("--%s is required (width,height): %w", KeyDimension, entity.ErrConfiguration)
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == 'x' || r == 'X' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--%s %q: expected width,height: %w", KeyDimension, s, entity.ErrConfiguration)
	}

	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return 0, 0, fmt.Errorf("--%s %q: not integers: %w", KeyDimension, s, entity.ErrConfiguration)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("--%s %q: must be positive: %w", KeyDimension, s, entity.ErrConfiguration)
	}
	return w, h, nil
}

// ParseFeeds делит список потоков по запятым и отбрасывает пустые элементы.
func ParseFeeds(s string) []string {
	var feeds []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			feeds = append(feeds, f)
		}
	}
	return feeds
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean: %w", s, entity.ErrConfiguration)
	}
	return b, nil
}
