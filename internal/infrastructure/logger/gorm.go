package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold is used when no threshold option is given
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// GormLogger writes gorm statements to zap. Statement entries carry the
// request, correlation and trace IDs found in the query context.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a query is logged as slow.
// Zero disables slow-query logging.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreRecordNotFoundError controls whether ErrRecordNotFound is logged
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = !ignore
	}
}

// NewGormLogger creates a gorm logger named "gorm"
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		level:         level,
		slowThreshold: DefaultSlowQueryThreshold,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, level gormlogger.LogLevel, msg string, data []any) {
	if l.level < level {
		return
	}
	s := WithLogger(ctx, l.logger).Zap().Sugar()
	switch level {
	case gormlogger.Error:
		s.Errorf(msg, data...)
	case gormlogger.Warn:
		s.Warnf(msg, data...)
	default:
		s.Infof(msg, data...)
	}
}

// Trace logs one executed statement. Errors need level Error, slow
// statements need Warn and every other statement needs Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	lvl, msg, ok := l.classify(elapsed, err)
	if !ok {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case err != nil:
		fields = append(fields, zap.Error(err))
	case lvl == zapcore.WarnLevel:
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}

	if ce := WithLogger(ctx, l.logger).Zap().Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *GormLogger) classify(elapsed time.Duration, err error) (zapcore.Level, string, bool) {
	switch {
	case err != nil:
		if !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return 0, "", false
		}
		return zapcore.ErrorLevel, "sql failed", l.level >= gormlogger.Error
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		return zapcore.WarnLevel, "slow sql", l.level >= gormlogger.Warn
	default:
		return zapcore.InfoLevel, "sql", l.level >= gormlogger.Info
	}
}

// GormLogLevel returns the gorm level for the database.echo_sql setting.
// Echoing logs every statement; otherwise only slow queries and errors.
func GormLogLevel(echoSQL bool) gormlogger.LogLevel {
	if echoSQL {
		return gormlogger.Info
	}
	return gormlogger.Warn
}
