package repository

import (
	"context"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"

	"github.com/hashicorp/go-multierror"
)

// FanoutPublisher delivers each signal to every configured publisher.
// Delivery is best-effort per sink; errors are collected, not
// short-circuited.
type FanoutPublisher struct {
	sinks []drepo.SignalPublisher
}

// NewFanoutPublisher composes publishers. Nil sinks are skipped.
func NewFanoutPublisher(sinks ...drepo.SignalPublisher) drepo.SignalPublisher {
	out := make([]drepo.SignalPublisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &FanoutPublisher{sinks: out}
}

func (f *FanoutPublisher) Publish(ctx context.Context, s *models.Signal) error {
	var result *multierror.Error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (f *FanoutPublisher) Close() error {
	var result *multierror.Error
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
