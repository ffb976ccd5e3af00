package application

import (
	"log/slog"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveMetrics guarantees a non-nil metrics sink.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return nopMetrics{}
	}
	return metrics
}

type nopMetrics struct{}

func (nopMetrics) SessionCreated()                                           {}
func (nopMetrics) StateChanged(entities.SessionState, entities.SessionState) {}
func (nopMetrics) ContributionsSubmitted(int)                                {}
func (nopMetrics) VoteCast()                                                 {}
func (nopMetrics) VoteRejected(string)                                       {}
