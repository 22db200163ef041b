package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	HTTPHost string `envconfig:"DOWNLOAD_SERVICE_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort string `envconfig:"DOWNLOAD_SERVICE_HTTP_PORT" default:"8080" validate:"required,numeric"`

	LogLevel       LogLevel `envconfig:"DOWNLOAD_SERVICE_LOGGING_LEVEL" default:"INFO"`
	LogDevelopment bool     `envconfig:"DOWNLOAD_SERVICE_LOG_DEVELOPMENT" default:"false"`

	ArchiveRoot  string `envconfig:"DOWNLOAD_SERVICE_PATH" default:"test_photos" validate:"required"`
	ArchiverPath string `envconfig:"DOWNLOAD_SERVICE_ARCHIVER" default:"/usr/bin/zip" validate:"required"`
	IndexPath    string `envconfig:"DOWNLOAD_SERVICE_INDEX_PATH" default:"index.html" validate:"required"`

	ChunkSize int   `envconfig:"DOWNLOAD_SERVICE_CHUNK_SIZE" default:"4096" validate:"min=1,max=1048576"`
	Pause     Pause `envconfig:"DOWNLOAD_SERVICE_PAUSE"`

	RequestTimeout  time.Duration `envconfig:"DOWNLOAD_SERVICE_REQUEST_TIMEOUT" default:"0s" validate:"min=0"`
	ShutdownTimeout time.Duration `envconfig:"DOWNLOAD_SERVICE_SHUTDOWN_TIMEOUT" default:"5s" validate:"min=0"`

	MetricsEnabled bool `envconfig:"DOWNLOAD_SERVICE_METRICS_ENABLED" default:"true"`
}

// Load читает конфигурацию из окружения и проверяет ее.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Addr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}

// Pause - задержка после каждого отправленного куска архива.
// Значение задается в секундах, дробные значения допустимы.
// Пустое, некорректное или отрицательное значение отключает паузу.
type Pause time.Duration

func (p *Pause) Decode(value string) error {
	*p = 0

	secs, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || secs <= 0 {
		return nil
	}

	*p = Pause(secs * float64(time.Second))
	return nil
}

func (p Pause) Duration() time.Duration {
	return time.Duration(p)
}

// LogLevel принимает имена уровней DEBUG, INFO, WARNING, ERROR, CRITICAL
// (а также имена уровней zap). Неизвестный уровень означает INFO.
type LogLevel zapcore.Level

func (l *LogLevel) Decode(value string) error {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		*l = LogLevel(zapcore.DebugLevel)
	case "WARNING", "WARN":
		*l = LogLevel(zapcore.WarnLevel)
	case "ERROR":
		*l = LogLevel(zapcore.ErrorLevel)
	case "CRITICAL", "FATAL":
		*l = LogLevel(zapcore.FatalLevel)
	default:
		*l = LogLevel(zapcore.InfoLevel)
	}
	return nil
}

func (l LogLevel) Level() zapcore.Level {
	return zapcore.Level(l)
}
