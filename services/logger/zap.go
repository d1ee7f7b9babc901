package logsvc

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// NewZap builds the zap logger described by `conf`: coloured console output or JSON.
func NewZap(conf core.LogConfig) (*zap.Logger, error) {
	var zapConf zap.Config
	switch conf.Format {
	case "console":
		zapConf = zap.NewDevelopmentConfig()
		zapConf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapConf = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Level, err)
	}
	zapConf.Level = zap.NewAtomicLevelAt(level)

	return zapConf.Build(zap.AddCallerSkip(2))
}

// ZapLogger adapts a *zap.Logger to core.Logger.
type ZapLogger struct {
	z *zap.Logger
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

// fields converts the loose log args to zap fields.
func fields(args []interface{}) []zap.Field {
	flds := make([]zap.Field, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
		case error:
			flds = append(flds, zap.Error(v))
		case map[string]interface{}:
			for k, val := range v {
				flds = append(flds, zap.Any(k, val))
			}
		case school.Learner:
			flds = append(flds, zap.String("learner_id", v.ID), zap.String("admission_no", v.AdmissionNo))
		default:
			flds = append(flds, zap.Any(fmt.Sprintf("arg%d", i), v))
		}
	}
	return flds
}

func (l ZapLogger) log(level zapcore.Level, msg string, args []interface{}) {
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(fields(args)...)
	}
}

func (l ZapLogger) Debug(msg string, args ...interface{}) { l.log(zapcore.DebugLevel, msg, args) }
func (l ZapLogger) Info(msg string, args ...interface{})  { l.log(zapcore.InfoLevel, msg, args) }
func (l ZapLogger) Warn(msg string, args ...interface{})  { l.log(zapcore.WarnLevel, msg, args) }
func (l ZapLogger) Error(msg string, args ...interface{}) { l.log(zapcore.ErrorLevel, msg, args) }
func (l ZapLogger) Fatal(msg string, args ...interface{}) { l.log(zapcore.FatalLevel, msg, args) }

func (l ZapLogger) Sync() error {
	return l.z.Sync()
}
