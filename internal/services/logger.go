package services

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the owning service's ID.
type ServiceLogger struct {
	logger zerolog.Logger
}

// NewServiceLogger derives from the global logger, so it must be created
// after the level and writer are set up in main.
func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: log.With().Str("service", svc.ID()).Logger(),
	}
}

// With returns a child logger carrying one more field.
func (l *ServiceLogger) With(key, value string) *ServiceLogger {
	return &ServiceLogger{logger: l.logger.With().Str(key, value).Logger()}
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
