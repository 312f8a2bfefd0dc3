package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// ZerologProvider is the default LoggerProvider. All loggers it hands out
// share one zerolog.Logger and one level setting.
type ZerologProvider struct {
	mu    sync.RWMutex
	base  zerolog.Logger
	level Level
}

// NewZerologProvider creates a provider writing JSON lines to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: level,
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{provider: p, ctx: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{provider: p, ctx: p.base.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func (p *ZerologProvider) enabled(level Level) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return level >= p.level
}

// warn emits a library warning. Warnings implementing
// zerolog.LogObjectMarshaler are embedded field by field.
func (p *ZerologProvider) warn(w error) {
	if !p.enabled(LevelWarn) {
		return
	}
	event := p.base.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		event = event.EmbedObject(m)
	}
	event.Msg(w.Error())
}

type zerologLogger struct {
	provider *ZerologProvider
	ctx      zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(LevelDebug, msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(LevelInfo, msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(LevelWarn, msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(LevelError, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{
		provider: l.provider,
		ctx:      l.ctx.With().Fields(fieldMap(fields)).Logger(),
	}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.provider.enabled(level)
}

func (l *zerologLogger) emit(level Level, msg string, fields []any) {
	if !l.provider.enabled(level) {
		return
	}
	var event *zerolog.Event
	switch level {
	case LevelDebug:
		event = l.ctx.Debug()
	case LevelInfo:
		event = l.ctx.Info()
	case LevelWarn:
		event = l.ctx.Warn()
	default:
		event = l.ctx.Error()
	}
	for i := 0; i < len(fields)-1; i += 2 {
		if err, ok := fields[i+1].(error); ok && fields[i] == ErrAttrKey {
			event = event.Err(err)
			if stack := extractStacktrace(err); stack != "" {
				event = event.Str(StacktraceAttrKey, stack)
			}
			fields = append(fields[:i:i], fields[i+2:]...)
			break
		}
	}
	event.Fields(fieldMap(fields)).Msg(msg)
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider
)

func init() {
	SetProvider(NewZerologProvider(os.Stderr, LevelInfo))
}

// SetProvider replaces the process-wide provider. When p is a
// *ZerologProvider, library warnings from pkg/errors are routed through it.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defaultProvider = p
	providerMu.Unlock()

	if zp, ok := p.(*ZerologProvider); ok {
		errors.SetZerologWarnFunc(zp.warn)
	} else {
		errors.SetZerologWarnFunc(nil)
	}
}

// GetLogger returns a logger from the process-wide provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a named logger from the process-wide provider.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// SetLevel changes the level of the process-wide provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	defaultProvider.SetLevel(level)
}
