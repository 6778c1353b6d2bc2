package services

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/domain"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every line with the service id and, once bound, the
// program the service answers for.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return newServiceLogger(log.Logger, svc)
}

func newServiceLogger(base zerolog.Logger, svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: base.With().Str("service", svc.ID()).Logger(),
	}
}

// ForProgram returns a logger that also carries program_id.
func (l *ServiceLogger) ForProgram(id solana.PublicKey) *ServiceLogger {
	return &ServiceLogger{logger: l.logger.With().Str("program_id", id.String()).Logger()}
}

// Rejected starts an event for an operation that failed with err. Protocol
// errors are the caller's fault and log at warn with their name and kind;
// anything else is ours and logs at error.
func (l *ServiceLogger) Rejected(op string, err error) *zerolog.Event {
	if be, ok := domain.AsBasketError(err); ok {
		return l.logger.Warn().Str("operation", op).Str("error_name", be.Name).Str("kind", be.Kind.String()).Err(err)
	}
	return l.logger.Error().Str("operation", op).Err(err)
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
