package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 把 watermill 日志桥接到 zerolog. watermill 的 Info 日志多为订阅与连接细节，降为 debug.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter 以 component=mq 包装 zerolog 日志器.
func NewLoggerAdapter(l *zerolog.Logger) watermill.LoggerAdapter {
	return &zerologAdapter{l: l.With().Str("component", "mq").Logger()}
}

func (z *zerologAdapter) emit(level zerolog.Level, msg string, err error, fields watermill.LogFields) {
	ev := z.l.WithLevel(level)
	if ev == nil {
		return
	}

	if err != nil {
		ev = ev.Err(err)
	}

	ev.Fields(map[string]any(fields)).Msg(msg)
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.emit(zerolog.ErrorLevel, msg, err, fields)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	z.emit(zerolog.DebugLevel, msg, nil, fields)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	z.emit(zerolog.DebugLevel, msg, nil, fields)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	z.emit(zerolog.TraceLevel, msg, nil, fields)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{l: z.l.With().Fields(map[string]any(fields)).Logger()}
}
