package provisioning

import (
	"context"

	"github.com/erp/egnyte-provisioner/internal/domain/shared"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/persistence"
)

// Ledger records provisioning outcomes and answers where a project's folder
// was last seen. The ledger is advisory only: Egnyte remains the source of
// truth for folder existence.
type Ledger interface {
	Append(ctx context.Context, rec persistence.ProvisionRecord) error
	LastFolderPath(ctx context.Context, projectID string) (string, error)
}

// NoopLedger satisfies Ledger for runs with the ledger disabled.
type NoopLedger struct{}

// Append discards the record.
func (NoopLedger) Append(ctx context.Context, rec persistence.ProvisionRecord) error {
	return nil
}

// LastFolderPath reports every project as never seen.
func (NoopLedger) LastFolderPath(ctx context.Context, projectID string) (string, error) {
	return "", shared.ErrNotFound
}

var _ Ledger = (*persistence.RunLedger)(nil)
var _ Ledger = NoopLedger{}
