// Package file implements the file-partitioned Storage backend (§4.B).
// Jobs are partitioned across files keyed by (date, status) and written
// atomically per file (temp file + rename, fsync file, fsync directory),
// grounded on nandlabs-golly/chrono's write-temp-then-rename pattern and
// extended with the directory fsync the spec requires.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"oss.nandlabs.io/golly/codec"
	"oss.nandlabs.io/golly/ioutils"

	"github.com/rezkam/mono/internal/domain"
)

// partitionFile is the on-disk shape of one partition file.
type partitionFile struct {
	Jobs []record `json:"jobs"`
}

// record is the serialisable form of a domain.Job.
type record struct {
	JobID         string     `json:"jobId"`
	AccountID     string     `json:"accountId"`
	Content       string     `json:"content"`
	Scheduled     time.Time  `json:"scheduledTime"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	Platform      string     `json:"platform"`
	MaxRetries    int        `json:"maxRetries"`
	RetryCount    int        `json:"retryCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	ThreadID      string     `json:"threadId,omitempty"`
	StatusMessage string     `json:"statusMessage,omitempty"`
	LinkAff       string     `json:"linkAff,omitempty"`
}

func toRecord(j domain.Job) record {
	return record{
		JobID: j.JobID, AccountID: j.AccountID, Content: j.Content,
		Scheduled: j.Scheduled, Priority: string(j.Priority), Status: string(j.Status),
		Platform: string(j.Platform), MaxRetries: j.MaxRetries, RetryCount: j.RetryCount,
		CreatedAt: j.CreatedAt, StartedAt: j.StartedAt, CompletedAt: j.CompletedAt,
		Error: j.Error, ThreadID: j.ThreadID, StatusMessage: j.StatusMessage, LinkAff: j.LinkAff,
	}
}

func fromRecord(r record) domain.Job {
	status := domain.Status(r.Status)
	if status == "" {
		status = domain.StatusScheduled
	}
	priority := domain.Priority(r.Priority)
	if priority == "" {
		priority = domain.PriorityNormal
	}
	platform := domain.Platform(r.Platform)
	if platform == "" {
		platform = domain.PlatformThreads
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.Scheduled
	}
	return domain.Job{
		JobID: r.JobID, AccountID: r.AccountID, Content: r.Content,
		Scheduled: r.Scheduled, Priority: priority, Status: status,
		Platform: platform, MaxRetries: r.MaxRetries, RetryCount: r.RetryCount,
		CreatedAt: createdAt, StartedAt: r.StartedAt, CompletedAt: r.CompletedAt,
		Error: r.Error, ThreadID: r.ThreadID, StatusMessage: r.StatusMessage, LinkAff: r.LinkAff,
	}
}

// partitionKey returns the (date, status) partition a job belongs to per
// §4.B: date = completedAt if set else scheduledTime's date; status =
// "completed" if completedAt is set else the job's own status.
func partitionKey(j domain.Job) (date string, status string) {
	t := j.Scheduled
	s := string(j.Status)
	if j.CompletedAt != nil {
		t = *j.CompletedAt
		s = "completed"
	}
	return t.UTC().Format("2006-01-02"), s
}

func partitionFileName(dir, date, status string) string {
	return filepath.Join(dir, fmt.Sprintf("%s__%s.json", date, status))
}

// Store is a file-partitioned Storage implementation.
type Store struct {
	mu  sync.Mutex
	dir string
	c   codec.Codec
}

// New creates a Store rooted at dir, creating the directory if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create dir: %w", err)
	}
	c, err := codec.GetDefault(ioutils.MimeApplicationJSON)
	if err != nil {
		return nil, fmt.Errorf("file storage: codec: %w", err)
	}
	return &Store{dir: dir, c: c}, nil
}

func (s *Store) Close() error { return nil }

// LoadAll reads every partition file under dir and merges their job records.
func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("file storage: read dir: %w", err)
	}

	out := make(map[string]domain.Job)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		pf, err := s.readPartition(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, r := range pf.Jobs {
			out[r.JobID] = fromRecord(r)
		}
	}
	return out, nil
}

func (s *Store) readPartition(path string) (partitionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return partitionFile{}, nil
		}
		return partitionFile{}, fmt.Errorf("file storage: open %s: %w", path, err)
	}
	defer f.Close()

	var pf partitionFile
	if err := s.c.Read(f, &pf); err != nil {
		return partitionFile{}, fmt.Errorf("file storage: decode %s: %w", path, err)
	}
	return pf, nil
}

// Save performs the upsert-then-prune step: every job in cache is written
// into its correct partition file; any record found in a file that is not
// that job's current correct file is removed from that file (cross-file
// cleanup); files left empty are deleted. Each file write is atomic on its
// own; the set of files is not, and earlier writes stay in place if a later
// one fails.
func (s *Store) Save(ctx context.Context, cache map[string]domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("file storage: read dir: %w", err)
	}

	wantByFile := make(map[string][]record)
	for _, j := range cache {
		date, status := partitionKey(j)
		path := partitionFileName(s.dir, date, status)
		wantByFile[path] = append(wantByFile[path], toRecord(j))
	}

	keep := make(map[string]bool)
	for _, j := range cache {
		keep[j.JobID] = true
	}

	touched := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		pf, err := s.readPartition(path)
		if err != nil {
			return err
		}

		var kept []record
		changed := false
		for _, r := range pf.Jobs {
			if !keep[r.JobID] {
				changed = true
				continue
			}
			// If this job's correct file differs from this file, drop it
			// here; it will be (re)written into its correct file below.
			correctPath := s.correctPathFor(cache[r.JobID])
			if correctPath != path {
				changed = true
				continue
			}
			kept = append(kept, r)
		}

		if recs, ok := wantByFile[path]; ok {
			kept = mergeByID(kept, recs)
			changed = true
			touched[path] = true
		}

		if len(kept) == 0 {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("file storage: remove empty partition: %w", err)
			}
			continue
		}
		if changed {
			if err := s.writePartitionAtomic(path, partitionFile{Jobs: kept}); err != nil {
				return err
			}
		}
	}

	// Any partition that doesn't exist yet but has jobs headed for it.
	for path, recs := range wantByFile {
		if touched[path] {
			continue
		}
		if err := s.writePartitionAtomic(path, partitionFile{Jobs: recs}); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) correctPathFor(j domain.Job) string {
	date, status := partitionKey(j)
	return partitionFileName(s.dir, date, status)
}

func mergeByID(existing []record, incoming []record) []record {
	byID := make(map[string]record, len(existing)+len(incoming))
	for _, r := range existing {
		byID[r.JobID] = r
	}
	for _, r := range incoming {
		byID[r.JobID] = r
	}
	out := make([]record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// writePartitionAtomic writes state to path via temp-file-then-rename,
// fsyncing the temp file before rename and the containing directory after,
// per §4.B's durability requirement.
func (s *Store) writePartitionAtomic(path string, state partitionFile) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("file storage: create temp: %w", err)
	}

	if err := s.c.Write(state, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("file storage: encode: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("file storage: fsync temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file storage: close temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file storage: rename: %w", err)
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("file storage: open dir for fsync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("file storage: fsync dir: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, jobID string) (domain.Job, bool, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return domain.Job{}, false, err
	}
	j, ok := all[jobID]
	return j, ok, nil
}

func (s *Store) ByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Job
	for _, j := range all {
		if j.Status == status {
			out = append(out, j)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) ByAccount(ctx context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Job
	for _, j := range all {
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
