package service

import (
	"context"
	"encoding/json"

	"darkroom/internal/modkit/repokit"
	"darkroom/internal/platform/bus"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/services/projects/domain"
)

// Run consumes worker results and applies them to image rows until ctx is
// canceled. Bad messages are logged and skipped, never fatal to the loop
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Str("topic", s.cfg.ResultsTopic).Msg("results applier starting")
	return s.consumer.Run(ctx, func(ctx context.Context, m bus.Message) error {
		return s.Apply(ctx, m.Value)
	})
}

// Apply moves the image row for one worker result to its terminal status.
// Unknown job ids are tolerated; redelivered results are idempotent updates
func (s *Svc) Apply(ctx context.Context, payload []byte) error {
	var res domain.ResultUpdate
	if err := json.Unmarshal(payload, &res); err != nil {
		s.log.Warn().Err(err).Msg("undecodable result")
		return perr.Wrap(err, perr.ErrorCodeJSON, "decode result")
	}
	if res.JobID == "" {
		return perr.InvalidArgf("result missing job_id")
	}

	var status string
	switch res.Status {
	case "DONE":
		status = domain.StatusCompleted
	case "FAILED":
		status = domain.StatusFailed
	default:
		return perr.InvalidArgf("unknown result status %q", res.Status)
	}

	var matched bool
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		matched, err = s.binder.Bind(q).ApplyResult(ctx, res.JobID, status, res.ResultLocation)
		return err
	})
	if err != nil {
		return err
	}

	if !matched {
		s.log.Debug().Str("job_id", res.JobID).Msg("result for unknown job, ignored")
		return nil
	}
	s.log.Info().Str("job_id", res.JobID).Str("status", status).Msg("result applied")
	return nil
}
