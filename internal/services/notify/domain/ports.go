package domain

import "context"

// AuditPort records dispatch outcomes, implemented by the audit service.
// Recording is best effort; a failed write never affects delivery
type AuditPort interface {
	Record(ctx context.Context, rec DeliveryRecord) error
}

// Ports carries cross-module dependencies injected at wiring time
type Ports struct {
	// Audit records dispatch outcomes, nil disables the sink
	Audit AuditPort
}

// DispatcherPort is what the consumer loop and tests drive
type DispatcherPort interface {
	Dispatch(ctx context.Context, payload []byte) error
}

// RunnerPort is the long-running consumer loop the host process owns
type RunnerPort interface {
	Run(ctx context.Context) error
}
