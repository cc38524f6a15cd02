package logger

import (
	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// PionLogger routes pion internals (ICE, DTLS, SCTP) into our logger.
// It is both the factory and the leveled logger pion asks it for.
type PionLogger struct {
	log *Logger
}

// NewPionLogger makes a factory that drops pion lines below the level.
func NewPionLogger(root *Logger, level int) *PionLogger {
	l := root.Level(zerolog.Level(level))
	return &PionLogger{log: root.Wrap(l.With().Str("m", "pion"))}
}

// With tags every line of the loggers made afterwards, a peer id for example.
func (p *PionLogger) With(key, value string) *PionLogger {
	return &PionLogger{log: p.log.Wrap(p.log.With().Str(key, value))}
}

// NewLogger is called by pion once per component (ice, dtls, sctp, pc).
func (p *PionLogger) NewLogger(scope string) logging.LeveledLogger {
	return &PionLogger{log: p.log.Wrap(p.log.With().Str("mod", scope))}
}

func (p *PionLogger) at(l Level) *zerolog.Event { return p.log.WithLevel(zerolog.Level(l)) }

func (p *PionLogger) Trace(msg string)                  { p.at(TraceLevel).Msg(msg) }
func (p *PionLogger) Tracef(format string, args ...any) { p.at(TraceLevel).Msgf(format, args...) }
func (p *PionLogger) Debug(msg string)                  { p.at(DebugLevel).Msg(msg) }
func (p *PionLogger) Debugf(format string, args ...any) { p.at(DebugLevel).Msgf(format, args...) }
func (p *PionLogger) Info(msg string)                   { p.at(InfoLevel).Msg(msg) }
func (p *PionLogger) Infof(format string, args ...any)  { p.at(InfoLevel).Msgf(format, args...) }
func (p *PionLogger) Warn(msg string)                   { p.at(WarnLevel).Msg(msg) }
func (p *PionLogger) Warnf(format string, args ...any)  { p.at(WarnLevel).Msgf(format, args...) }
func (p *PionLogger) Error(msg string)                  { p.at(ErrorLevel).Msg(msg) }
func (p *PionLogger) Errorf(format string, args ...any) { p.at(ErrorLevel).Msgf(format, args...) }
