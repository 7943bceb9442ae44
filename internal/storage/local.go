package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"job-board-go/internal/models"
)

const (
	localJobPrefix = "jobs/"
	localSeqKey    = "seq/jobs"
)

// LocalStore is an embedded badger-backed binding for development and tests.
type LocalStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// localRecord is the stored value; Seq orders records by insertion.
type localRecord struct {
	Job       models.Job `json:"job"`
	Seq       uint64     `json:"seq"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewLocalStore opens (or creates) a badger database under dataDir.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dataDir, "badger"))
	opts.Logger = nil
	return openLocalStore(opts)
}

// NewInMemoryLocalStore keeps everything in memory; nothing touches disk.
func NewInMemoryLocalStore() (*LocalStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openLocalStore(opts)
}

func openLocalStore(opts badger.Options) (*LocalStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(localSeqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open job sequence: %w", err)
	}

	return &LocalStore{db: db, seq: seq}, nil
}

func (s *LocalStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release job sequence: %w", err)
	}
	return s.db.Close()
}

func localKey(id string) []byte {
	return []byte(localJobPrefix + id)
}

func (s *LocalStore) ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []localRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(localJobPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec localRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode job %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	// Most recent first
	sort.Slice(records, func(i, j int) bool {
		return records[i].Seq > records[j].Seq
	})

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	jobs := make([]models.Job, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, rec.Job)
	}
	return jobs, nil
}

func (s *LocalStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec localRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, id, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec.Job, nil
}

func getRecord(txn *badger.Txn, id string, rec *localRecord) error {
	item, err := txn.Get(localKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("get job %s: %w", id, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
}

func (s *LocalStore) CreateJob(ctx context.Context, newJob models.NewJob) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := s.newRecord(newJob)
	if err != nil {
		return nil, err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return putRecord(txn, rec)
	}); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}
	return &rec.Job, nil
}

func (s *LocalStore) newRecord(newJob models.NewJob) (localRecord, error) {
	seq, err := s.seq.Next()
	if err != nil {
		return localRecord{}, fmt.Errorf("next job sequence: %w", err)
	}
	return localRecord{
		Job:       newJob.WithID(uuid.NewString()),
		Seq:       seq,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func putRecord(txn *badger.Txn, rec localRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return txn.Set(localKey(rec.Job.ID), data)
}

func (s *LocalStore) UpdateJob(ctx context.Context, job models.Job) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var rec localRecord
		if err := getRecord(txn, job.ID, &rec); err != nil {
			return err
		}
		rec.Job = job
		return putRecord(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *LocalStore) DeleteJob(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(localKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return err
		}
		return txn.Delete(localKey(id))
	})
}

// SaveJobs stores the batch in a single transaction.
func (s *LocalStore) SaveJobs(ctx context.Context, jobs []models.NewJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]localRecord, 0, len(jobs))
	for _, job := range jobs {
		rec, err := s.newRecord(job)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			if err := putRecord(txn, rec); err != nil {
				return err
			}
		}
		return nil
	})
}
