package services

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every line with the owning service and, through
// Method, the entry point that wrote it.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return NewServiceLoggerWith(log.Logger, svc)
}

// NewServiceLoggerWith derives from base instead of the global logger.
func NewServiceLoggerWith(base zerolog.Logger, svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: base.With().Str("service", svc.ID()).Logger(),
	}
}

func (l *ServiceLogger) Method(name string) *zerolog.Logger {
	child := l.logger.With().Str("method", name).Logger()
	return &child
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}
