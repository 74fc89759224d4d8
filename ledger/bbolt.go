package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"go.etcd.io/bbolt"
)

var _ Ledger = (*BboltLedger)(nil)

type BboltLedger struct {
	db     *bbolt.DB
	bucket string
}

// NewBboltLedger opens (or creates) the ledger database described by cfg
func NewBboltLedger(cfg *config.LedgerConfig) (*BboltLedger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	// a second dashboard holding the lock should not hang this one forever
	db, err := bbolt.Open(cfg.Path, cfg.Mode, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", cfg.Path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BboltLedger{db: db, bucket: cfg.Bucket}, nil
}

func (l *BboltLedger) Close() error {
	return l.db.Close()
}

// Put stores rec, replacing any earlier install of the same region
func (l *BboltLedger) Put(rec model.InstallRecord) error {
	if rec.Region == "" {
		return fmt.Errorf("install record has no region")
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(l.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.Region), val)
	})
}

func (l *BboltLedger) Get(region model.Region) (*model.InstallRecord, error) {
	var rec model.InstallRecord
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(l.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val := b.Get([]byte(region))
		if val == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, region)
		}
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l *BboltLedger) List() ([]model.InstallRecord, error) {
	var records []model.InstallRecord
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(l.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		// keys are region names, so cursor order is alphabetical
		return b.ForEach(func(k, v []byte) error {
			var rec model.InstallRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal error for key %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

func (l *BboltLedger) Delete(region model.Region) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(l.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		if b.Get([]byte(region)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, region)
		}
		return b.Delete([]byte(region))
	})
}
