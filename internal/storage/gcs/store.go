// Package gcs is an object-per-job Storage backend backed by a Cloud
// Storage bucket, one JSON object per job keyed by job ID. It mirrors the
// object-per-entity layout and parallel-fetch pattern the teacher uses for
// its own bucket-backed store, adapted here to the job schema and to the
// load/save contract the scheduler expects.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/rezkam/mono/internal/domain"
)

// Store is a Cloud Storage-backed implementation of storage.Storage.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a Store against bucket. The client is assumed to already be
// authenticated, typically via GOOGLE_APPLICATION_CREDENTIALS or workload
// identity.
func New(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: create client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectName(jobID string) string {
	return fmt.Sprintf("%s.json", jobID)
}

// Save writes every job in cache as its own object and removes objects for
// job IDs absent from cache, matching the replace-whole-set semantics the
// other backends provide.
func (s *Store) Save(ctx context.Context, cache map[string]domain.Job) error {
	existing, err := s.listObjectNames(ctx)
	if err != nil {
		return fmt.Errorf("gcs storage: save: %w", err)
	}

	for _, j := range cache {
		if err := s.putJob(ctx, j); err != nil {
			return fmt.Errorf("gcs storage: put %s: %w", j.JobID, err)
		}
	}

	for name := range existing {
		id := strings.TrimSuffix(name, ".json")
		if _, ok := cache[id]; ok {
			continue
		}
		if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("gcs storage: prune %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) putJob(ctx context.Context, j domain.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	w := s.client.Bucket(s.bucket).Object(s.objectName(j.JobID)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write: %w", err)
	}
	return w.Close()
}

func (s *Store) listObjectNames(ctx context.Context) (map[string]struct{}, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, nil)
	names := make(map[string]struct{})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, ".json") {
			names[attrs.Name] = struct{}{}
		}
	}
	return names, nil
}

// GetByID fetches a single job object. Returns ok=false if the object does
// not exist.
func (s *Store) GetByID(ctx context.Context, jobID string) (domain.Job, bool, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.objectName(jobID)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("gcs storage: get by id: %w", err)
	}
	defer r.Close()

	var j domain.Job
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return domain.Job{}, false, fmt.Errorf("gcs storage: decode %s: %w", jobID, err)
	}
	return j, true, nil
}

// LoadAll lists every job object in the bucket and fetches them concurrently.
func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Job, error) {
	jobs, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Job, len(jobs))
	for _, j := range jobs {
		out[j.JobID] = j
	}
	return out, nil
}

func (s *Store) ByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	jobs, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Job
	for _, j := range jobs {
		if j.Status != status {
			continue
		}
		out = append(out, j)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ByAccount(ctx context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	jobs, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Job
	for _, j := range jobs {
		if j.AccountID != accountID {
			continue
		}
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

// fetchAll lists every job object and fetches them in parallel, capped at
// maxConcurrency in-flight reads. Unreadable objects are skipped rather than
// failing the whole load, since a single corrupt object should not block
// recovery of the rest of the job set.
func (s *Store) fetchAll(ctx context.Context) ([]domain.Job, error) {
	names, err := s.listObjectNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: fetch all: %w", err)
	}

	const maxConcurrency = 20
	semaphore := make(chan struct{}, maxConcurrency)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs []domain.Job
	)

	for name := range names {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(objectName string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			r, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
			if err != nil {
				return
			}
			defer r.Close()

			data, err := io.ReadAll(r)
			if err != nil {
				return
			}

			var j domain.Job
			if err := json.Unmarshal(data, &j); err != nil {
				return
			}
			mu.Lock()
			jobs = append(jobs, j)
			mu.Unlock()
		}(name)
	}

	wg.Wait()
	return jobs, nil
}
