package ledger

import (
	"errors"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
)

// Ledger keeps one record per installed region
type Ledger interface {
	Put(rec model.InstallRecord) error
	Get(region model.Region) (*model.InstallRecord, error)
	// List returns all records ordered by region
	List() ([]model.InstallRecord, error)
	Delete(region model.Region) error
	Close() error
}

var (
	ErrNotFound       error = errors.New("install record not found")
	ErrBucketNotFound error = errors.New("bucket not found")
)

// Open returns the configured ledger, or nil when the ledger is disabled
func Open(cfg *config.LedgerConfig) (Ledger, error) {
	if cfg.Disabled {
		return nil, nil
	}
	l, err := NewBboltLedger(cfg)
	if err != nil {
		return nil, err
	}
	return l, nil
}
