package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DevMode  bool   `env:"LOGGER_DEV_MODE" envDefault:"false"`
	LogLevel string `env:"LOGGER_LEVEL" envDefault:"info"`
}

type Logger interface {
	InitLogger()
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
}

// AppLogger is a zap-backed implementation of Logger.
type AppLogger struct {
	cfg   *Config
	sugar *zap.SugaredLogger
}

func NewAppLogger(cfg *Config) *AppLogger {
	return &AppLogger{cfg: cfg}
}

func (l *AppLogger) InitLogger() {
	level := zapcore.InfoLevel
	if l.cfg != nil && l.cfg.LogLevel != "" {
		if parsed, err := zapcore.ParseLevel(l.cfg.LogLevel); err == nil {
			level = parsed
		}
	}

	var zapCfg zap.Config
	if l.cfg != nil && l.cfg.DevMode {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	l.sugar = logger.Sugar()
}

func (l *AppLogger) Debug(args ...interface{})                    { l.sugar.Debug(args...) }
func (l *AppLogger) Debugf(template string, args ...interface{})  { l.sugar.Debugf(template, args...) }
func (l *AppLogger) Info(args ...interface{})                     { l.sugar.Info(args...) }
func (l *AppLogger) Infof(template string, args ...interface{})   { l.sugar.Infof(template, args...) }
func (l *AppLogger) Warn(args ...interface{})                     { l.sugar.Warn(args...) }
func (l *AppLogger) Warnf(template string, args ...interface{})   { l.sugar.Warnf(template, args...) }
func (l *AppLogger) Error(args ...interface{})                    { l.sugar.Error(args...) }
func (l *AppLogger) Errorf(template string, args ...interface{})  { l.sugar.Errorf(template, args...) }
func (l *AppLogger) Fatal(args ...interface{})                    { l.sugar.Fatal(args...) }
func (l *AppLogger) Fatalf(template string, args ...interface{})  { l.sugar.Fatalf(template, args...) }
