package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseConfString(t *testing.T) {
	require.Equal(t, "{log: {level: trace}}", string(parseConfString("log.level=trace")))
	require.Equal(t, "{cameras: {door: {host: 10.0.0.2}}}", string(parseConfString("cameras.door.host=10.0.0.2")))
	require.Nil(t, parseConfString("level=trace"))
	require.Nil(t, parseConfString("tapoptz.yaml"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapoptz.yaml")
	t.Setenv("TAPO_PASSWORD", "secret")

	err := os.WriteFile(path, []byte(`
log:
  output: ""
  level: warn
  camera: trace
cameras:
  door:
    host: 192.168.1.10
    password: ${TAPO_PASSWORD}
`), 0644)
	require.Nil(t, err)

	Load([]string{path, "{cameras: {gate: {host: 192.168.1.11, port: 8000}}}", "log.level=debug"})
	require.Equal(t, path, ConfigPath)
	require.Equal(t, path, Info["config_path"])

	var cfg struct {
		Cameras map[string]struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
		} `yaml:"cameras"`
	}
	LoadConfig(&cfg)

	require.Equal(t, "192.168.1.10", cfg.Cameras["door"].Host)
	require.Equal(t, 8000, cfg.Cameras["gate"].Port)
	require.Equal(t, "secret", cfg.Cameras["door"].Password)

	require.Equal(t, zerolog.DebugLevel, Logger.GetLevel())
	require.Equal(t, zerolog.TraceLevel, GetLogger("camera").GetLevel())
	require.Equal(t, zerolog.DebugLevel, GetLogger("api").GetLevel())
}

func TestLoadMissingFile(t *testing.T) {
	Load([]string{filepath.Join(t.TempDir(), "missing.yaml"), `log.output=""`})
	require.NotEmpty(t, ConfigPath)

	var cfg map[string]any
	LoadConfig(&cfg)
	require.Nil(t, cfg["cameras"])
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(map[string]string{"level": "debug"}, &buf)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Str("camera", "door").Msg("[test] hello")
	require.Contains(t, buf.String(), `"camera":"door"`)
	require.Contains(t, buf.String(), `"message":"[test] hello"`)

	logger = NewLogger(map[string]string{"level": "wrong"}, nil)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestCircularBuffer(t *testing.T) {
	b := newBuffer(2)

	_, _ = b.Write([]byte("hello "))
	_, _ = b.Write([]byte("world"))

	var out bytes.Buffer
	_, err := b.WriteTo(&out)
	require.Nil(t, err)
	require.Equal(t, "hello world", out.String())

	// two chunks overflow drops the oldest one
	big := bytes.Repeat([]byte{'x'}, chunkSize)
	_, _ = b.Write(big)
	_, _ = b.Write(big)

	out.Reset()
	_, _ = b.WriteTo(&out)
	require.Equal(t, 2*chunkSize, out.Len())

	b.Reset()
	out.Reset()
	_, _ = b.WriteTo(&out)
	require.Zero(t, out.Len())
}

func TestVersionString(t *testing.T) {
	require.Contains(t, VersionString(), "tapoptz version "+Version)
}
