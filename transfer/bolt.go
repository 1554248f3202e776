package transfer

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"bank/transfer/options"
)

const transactionsBucket = "transactions"

var _ Repo = (*BoltRepo)(nil)

// BoltRepo keeps transactions in a single embedded database file.
// Records are JSON encoded and keyed by transaction id.
type BoltRepo struct {
	db *bolt.DB
}

// OpenBoltRepo opens (or creates) the database at path
func OpenBoltRepo(path string) (*BoltRepo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(transactionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltRepo{db: db}, nil
}

func (r *BoltRepo) Close() error {
	return r.db.Close()
}

func (r *BoltRepo) Create(_ context.Context, t *Transaction) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(transactionsBucket)).Put(t.ID[:], data)
	})
}

func (r *BoltRepo) FindByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	var t Transaction
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(transactionsBucket)).Get(id[:])
		if v == nil {
			return ErrTransactionNotFound
		}
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Complete checks and writes inside one bolt write transaction, which bolt serializes
func (r *BoltRepo) Complete(_ context.Context, t *Transaction) (bool, error) {
	written := false
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(transactionsBucket))
		v := b.Get(t.ID[:])
		if v == nil {
			return ErrTransactionNotFound
		}

		var stored Transaction
		if err := json.Unmarshal(v, &stored); err != nil {
			return err
		}
		if stored.Status != StatusInitiated {
			return nil
		}

		stored.Status = t.Status
		stored.FailureReason = t.FailureReason
		stored.UpdatedAt = t.UpdatedAt
		data, err := json.Marshal(&stored)
		if err != nil {
			return err
		}

		written = true
		return b.Put(t.ID[:], data)
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func (r *BoltRepo) Find(_ context.Context, opts ...*options.TransactionOptions) ([]*Transaction, error) {
	var opt *options.TransactionOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	var result []*Transaction
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(transactionsBucket)).ForEach(func(_, v []byte) error {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if matches(&t, opt) {
				result = append(result, &t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// matches applies the same filters PostgresRepo.Find turns into SQL
func matches(t *Transaction, opt *options.TransactionOptions) bool {
	if opt == nil {
		return true
	}
	if len(opt.IDs) > 0 && !contains(opt.IDs, t.ID.String()) {
		return false
	}
	if len(opt.AccountIDs) > 0 &&
		!contains(opt.AccountIDs, t.FromID.String()) &&
		!contains(opt.AccountIDs, t.ToID.String()) {
		return false
	}
	if len(opt.Statuses) > 0 && !contains(opt.Statuses, string(t.Status)) {
		return false
	}
	if opt.Amount != nil && !opt.Amount.Contains(t.Amount) {
		return false
	}
	if opt.Timestamp != nil && !opt.Timestamp.Contains(t.CreatedAt) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, each := range values {
		if each == v {
			return true
		}
	}
	return false
}
