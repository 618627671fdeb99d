package service

import (
	"context"
	"encoding/json"
	"time"

	"darkroom/internal/core/registry"
	"darkroom/internal/platform/bus"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/services/notify/domain"
)

// Run blocks pulling result events until ctx is canceled.
// Every message is handled independently; a bad message is logged and
// committed by the consumer, never retried, never fatal to the loop
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Str("topic", s.cfg.ResultsTopic).Msg("results consumer starting")
	return s.consumer.Run(ctx, func(ctx context.Context, m bus.Message) error {
		return s.Dispatch(ctx, m.Value)
	})
}

// Dispatch decodes one raw result payload and pushes the frame to the
// owner's live channel. No channel is an expected outcome, not an error.
// Redelivered events produce duplicate frames, which clients tolerate
func (s *Svc) Dispatch(ctx context.Context, payload []byte) error {
	var ev domain.ResultEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		s.log.Warn().Err(err).Msg("undecodable result event")
		return perr.Wrap(err, perr.ErrorCodeJSON, "decode result event")
	}
	if err := ev.Validate(); err != nil {
		s.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("unroutable result event")
		return err
	}

	frame, err := json.Marshal(domain.FrameFor(ev))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode frame")
	}

	outcome := s.registry.Send(ev.OwnerID, frame)
	switch outcome {
	case registry.Delivered:
		s.log.Debug().
			Str("job_id", ev.JobID).
			Str("user_id", ev.OwnerID).
			Str("status", ev.Status).
			Msg("notification delivered")
	case registry.NoActiveChannel:
		// the user is not connected; the notification is dropped
		s.log.Debug().
			Str("job_id", ev.JobID).
			Str("user_id", ev.OwnerID).
			Msg("no active channel, dropped")
	case registry.SendFailed:
		s.log.Warn().
			Str("job_id", ev.JobID).
			Str("user_id", ev.OwnerID).
			Msg("channel write failed, dropped")
	}

	s.record(ctx, ev, outcome)
	return nil
}

func (s *Svc) record(ctx context.Context, ev domain.ResultEvent, outcome registry.Outcome) {
	if s.audit == nil {
		return
	}
	rec := domain.DeliveryRecord{
		JobID:   ev.JobID,
		UserID:  ev.OwnerID,
		Status:  ev.Status,
		Outcome: outcome.String(),
		At:      time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("audit write failed")
	}
}
