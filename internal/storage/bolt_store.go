package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// boltStore implements a Store backed by BoltDB; one bucket per table, JSON records keyed by id.
type boltStore struct {
	db     *bolt.DB
	bucket []byte
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path, table string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	bucket := []byte(table)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, bucket: bucket}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ScanAll decodes every record in the bucket. Undecodable values fail the scan.
func (b *boltStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Promo
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q missing", b.bucket)
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %q: %w", k, err)
			}
			out = append(out, rec.Promo())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put writes the record unless the key already exists.
func (b *boltStore) Put(ctx context.Context, p domain.Promo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPutable(p); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.RecordFromPromo(p))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q missing", b.bucket)
		}
		key := []byte(p.ID)
		if bucket.Get(key) != nil {
			return nil
		}
		return bucket.Put(key, payload)
	})
}
