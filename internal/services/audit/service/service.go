// Package service writes delivery audit rows to ClickHouse
package service

import (
	"context"

	"darkroom/internal/platform/logger"
	"darkroom/internal/platform/store"
	notifydomain "darkroom/internal/services/notify/domain"
)

// Table is the delivery log table name
const Table = "delivery_log"

// Svc implements the notify audit port on ClickHouse
type Svc struct {
	ch    store.Clickhouse
	table string
	log   *logger.Logger
}

// New constructs the audit writer
func New(ch store.Clickhouse) *Svc {
	return &Svc{ch: ch, table: Table, log: logger.Named("audit")}
}

var _ notifydomain.AuditPort = (*Svc)(nil)

// Record appends one dispatch outcome. Append only, no updates
func (s *Svc) Record(ctx context.Context, rec notifydomain.DeliveryRecord) error {
	return s.ch.Insert(ctx, s.table, [][]any{
		{rec.JobID, rec.UserID, rec.Status, rec.Outcome, rec.At},
	})
}
