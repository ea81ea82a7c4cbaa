package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
)

func referenceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	return path
}

func validConfig(t *testing.T) *Config {
	return &Config{
		Reference:   referenceFile(t),
		Feeds:       []string{"0"},
		Width:       640,
		Height:      480,
		Folder:      t.TempDir(),
		Speed:       10,
		Threshold:   0.98,
		FieldOfView: 3,
	}
}

func TestLoad_FromViper(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("SENTRY_DSN", "")

	v := NewViper()
	v.Set(KeyReference, referenceFile(t))
	v.Set(KeyVideo, "0, rtsp://cam/1 ,,")
	v.Set(KeyDimension, "320,240")
	v.Set(KeyFolder, t.TempDir())
	v.Set(KeySpeed, 12)
	v.Set(KeyMulti, "True")
	v.Set(KeyMaxArea, -1)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "rtsp://cam/1"}, cfg.Feeds)
	require.Equal(t, 320, cfg.Width)
	require.Equal(t, 240, cfg.Height)
	require.Equal(t, 12, cfg.Speed)
	require.True(t, cfg.Multi)
	require.Equal(t, 0.98, cfg.Threshold)
	require.Equal(t, 3.0, cfg.FieldOfView)
	require.Zero(t, cfg.MaxArea)
	require.Equal(t, "inspector/events", cfg.MQTT.Topic)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.Telegram.Enabled())
	require.Equal(t, int64(-100123), cfg.Telegram.ChatID)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("INSPECTOR_REFERENCE", referenceFile(t))
	t.Setenv("INSPECTOR_VIDEO", "1")
	t.Setenv("INSPECTOR_DIMENSION", "100x50")
	t.Setenv("INSPECTOR_FOLDER", t.TempDir())
	t.Setenv("INSPECTOR_SPEED", "30")
	t.Setenv("INSPECTOR_MAX_AREA", "250")
	t.Setenv("INSPECTOR_SAVE_REGIONS", "true")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, cfg.Feeds)
	require.Equal(t, 100, cfg.Width)
	require.Equal(t, 50, cfg.Height)
	require.Equal(t, 30, cfg.Speed)
	require.Equal(t, 250.0, cfg.MaxArea)
	require.True(t, cfg.SaveRegions)
}

func TestLoad_NaNFromEnvironment(t *testing.T) {
	t.Setenv("INSPECTOR_REFERENCE", referenceFile(t))
	t.Setenv("INSPECTOR_VIDEO", "1")
	t.Setenv("INSPECTOR_DIMENSION", "100x50")
	t.Setenv("INSPECTOR_FOLDER", t.TempDir())
	t.Setenv("INSPECTOR_SPEED", "30")
	t.Setenv("INSPECTOR_THRESHOLD", "NaN")
	t.Setenv("INSPECTOR_FOV", "NaN")

	_, err := Load(NewViper())
	require.ErrorIs(t, err, entity.ErrConfiguration)
	require.ErrorContains(t, err, KeyThreshold)
	require.ErrorContains(t, err, KeyFieldOfView)
}

func TestLoad_BadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "general")

	v := NewViper()
	v.Set(KeyDimension, "10,10")
	_, err := Load(v)
	require.ErrorIs(t, err, entity.ErrConfiguration)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(c *Config){
		"missing reference":  func(c *Config) { c.Reference = "" },
		"absent reference":   func(c *Config) { c.Reference = filepath.Join(t.TempDir(), "none.png") },
		"reference is dir":   func(c *Config) { c.Reference = t.TempDir() },
		"no feeds":           func(c *Config) { c.Feeds = nil },
		"many without multi": func(c *Config) { c.Feeds = []string{"0", "1"} },
		"zero width":         func(c *Config) { c.Width = 0 },
		"no folder":          func(c *Config) { c.Folder = "" },
		"zero speed":         func(c *Config) { c.Speed = 0 },
		"negative speed":     func(c *Config) { c.Speed = -4 },
		"zero fov":           func(c *Config) { c.FieldOfView = 0 },
		"threshold too high": func(c *Config) { c.Threshold = 1.5 },
		"threshold NaN":      func(c *Config) { c.Threshold = math.NaN() },
		"fov NaN":            func(c *Config) { c.FieldOfView = math.NaN() },
		"fov infinite":       func(c *Config) { c.FieldOfView = math.Inf(1) },
		"max area NaN":       func(c *Config) { c.MaxArea = math.NaN() },
		"negative max area":  func(c *Config) { c.MaxArea = -2 },
		"token without chat": func(c *Config) { c.Telegram.Token = "t" },
	}

	require.NoError(t, validConfig(t).Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), entity.ErrConfiguration)
		})
	}

	multi := validConfig(t)
	multi.Feeds = []string{"0", "1"}
	multi.Multi = true
	require.NoError(t, multi.Validate())
}

func TestParseDimension(t *testing.T) {
	w, h, err := ParseDimension("640,480")
	require.NoError(t, err)
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)

	w, h, err = ParseDimension(" 200 x 100 ")
	require.NoError(t, err)
	require.Equal(t, 200, w)
	require.Equal(t, 100, h)

	for _, bad := range []string{"", "640", "a,b", "0,10", "1,2,3", "-5,4"} {
		_, _, err := ParseDimension(bad)
		require.ErrorIs(t, err, entity.ErrConfiguration, bad)
	}
}

func TestParseFeeds(t *testing.T) {
	require.Equal(t, []string{"0", "1", "/data/line.mp4"}, ParseFeeds("0,1, /data/line.mp4"))
	require.Empty(t, ParseFeeds(" , "))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("INSPECTOR_TEST_DOTENV=loaded\n"), 0o644))
	t.Setenv("INSPECTOR_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("INSPECTOR_TEST_DOTENV"))

	LoadDotEnv(path)
	require.Equal(t, "loaded", os.Getenv("INSPECTOR_TEST_DOTENV"))
}
