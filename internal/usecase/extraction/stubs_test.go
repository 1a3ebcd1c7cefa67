package extraction_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
	"digest-extractor/internal/usecase/fetch"
)

/* ───────── jobs ───────── */

type memJobs struct {
	mu        sync.Mutex
	jobs      []*entity.ExtractionJob
	createErr error
}

func cloneJob(j *entity.ExtractionJob) *entity.ExtractionJob {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	return &c
}

func (r *memJobs) Create(_ context.Context, job *entity.ExtractionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, j := range r.jobs {
		if j.Scope == job.Scope && !j.Status.Terminal() {
			return repository.ErrActiveJobExists
		}
	}
	r.jobs = append(r.jobs, cloneJob(job))
	return nil
}

func (r *memJobs) Start(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id && j.Status == entity.StatusPending {
			j.Status = entity.StatusInProgress
			j.StartedAt = &at
			return nil
		}
	}
	return repository.ErrNoRows
}

func (r *memJobs) Finish(_ context.Context, job *entity.ExtractionJob) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, j := range r.jobs {
		if j.ID == job.ID {
			if j.Status.Terminal() {
				return false, nil
			}
			r.jobs[i] = cloneJob(job)
			return true, nil
		}
	}
	return false, nil
}

func (r *memJobs) Get(_ context.Context, id string) (*entity.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return cloneJob(j), nil
		}
	}
	return nil, nil
}

func (r *memJobs) Latest(_ context.Context, kind entity.JobKind) (*entity.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.jobs) - 1; i >= 0; i-- {
		if r.jobs[i].Kind == kind {
			return cloneJob(r.jobs[i]), nil
		}
	}
	return nil, nil
}

func (r *memJobs) ActiveByScope(_ context.Context, scope string) (*entity.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.Scope == scope && !j.Status.Terminal() {
			return cloneJob(j), nil
		}
	}
	return nil, nil
}

func (r *memJobs) ListActive(_ context.Context) ([]*entity.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ExtractionJob
	for _, j := range r.jobs {
		if !j.Status.Terminal() {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (r *memJobs) List(_ context.Context, f repository.JobFilter) ([]*entity.ExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ExtractionJob
	for i := len(r.jobs) - 1; i >= 0 && len(out) < f.Limit; i-- {
		j := r.jobs[i]
		if (f.Kind == "" || j.Kind == f.Kind) && (f.Status == "" || j.Status == f.Status) {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (r *memJobs) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

/* ───────── logs ───────── */

type memLogs struct {
	mu      sync.Mutex
	entries []entity.LogEntry
}

func (r *memLogs) Append(_ context.Context, e *entity.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *e
	c.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, c)
	return nil
}

func (r *memLogs) Query(_ context.Context, q repository.LogQuery) ([]*entity.LogEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.LogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if q.Level != "" && e.Level != q.Level {
			continue
		}
		if q.Module != "" && e.Module != q.Module {
			continue
		}
		if q.JobID != "" && e.JobID != q.JobID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, &e)
	}
	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*entity.LogEntry{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

func (r *memLogs) Modules(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range r.entries {
		if !seen[e.Module] {
			seen[e.Module] = true
			out = append(out, e.Module)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memLogs) messages(module string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if module == "" || e.Module == module {
			out = append(out, e.Message)
		}
	}
	return out
}

/* ───────── content, sources, archive ───────── */

type memContent struct {
	mu       sync.Mutex
	articles map[string]*entity.Article
	images   map[string]*entity.Image
}

func newContent() *memContent {
	return &memContent{articles: map[string]*entity.Article{}, images: map[string]*entity.Image{}}
}

func (c *memContent) InsertArticle(_ context.Context, a *entity.Article) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.articles[a.DedupeKey]; ok {
		return false, nil
	}
	c.articles[a.DedupeKey] = a
	return true, nil
}

func (c *memContent) InsertImage(_ context.Context, img *entity.Image) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[img.DedupeKey]; ok {
		return false, nil
	}
	c.images[img.DedupeKey] = img
	return true, nil
}

func (c *memContent) DeleteByIngestionDate(_ context.Context, date string) (repository.ContentCounts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n repository.ContentCounts
	for k, a := range c.articles {
		if a.IngestionDate == date {
			delete(c.articles, k)
			n.Articles++
		}
	}
	for k, img := range c.images {
		if img.IngestionDate == date {
			delete(c.images, k)
			n.Images++
		}
	}
	return n, nil
}

func (c *memContent) CountByIngestionDate(_ context.Context, date string) (repository.ContentCounts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n repository.ContentCounts
	for _, a := range c.articles {
		if a.IngestionDate == date {
			n.Articles++
		}
	}
	for _, img := range c.images {
		if img.IngestionDate == date {
			n.Images++
		}
	}
	return n, nil
}

type memSources struct {
	mu      sync.Mutex
	sources []*entity.Source
	touched map[int64]time.Time
}

func (r *memSources) Get(_ context.Context, id int64) (*entity.Source, error) {
	for _, s := range r.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}
func (r *memSources) GetByRSSURL(context.Context, string) (*entity.Source, error) { return nil, nil }
func (r *memSources) List(context.Context) ([]*entity.Source, error)              { return r.sources, nil }
func (r *memSources) ListActive(context.Context) ([]*entity.Source, error)        { return r.sources, nil }
func (r *memSources) Create(context.Context, *entity.Source) error                { return nil }
func (r *memSources) Update(context.Context, *entity.Source) error                { return nil }
func (r *memSources) Delete(context.Context, int64) error                         { return nil }
func (r *memSources) TouchLastFetch(_ context.Context, id int64, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touched == nil {
		r.touched = map[int64]time.Time{}
	}
	r.touched[id] = t
	return nil
}

func (r *memSources) touchedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.touched)
}

type memArchive struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newArchive(dates ...string) *memArchive {
	a := &memArchive{files: map[string][]byte{}}
	for _, d := range dates {
		a.files[d] = []byte("%PDF-1.4")
	}
	return a
}

func (a *memArchive) Exists(_ context.Context, date string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.files[date]
	return ok, nil
}
func (a *memArchive) Load(_ context.Context, date string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.files[date], nil
}
func (a *memArchive) Save(_ context.Context, date string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[date] = data
	return nil
}
func (a *memArchive) ListDates(context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.files))
	for d := range a.files {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

/* ───────── pipelines ───────── */

// funcPdf runs fn for every ingest and counts the calls.
type funcPdf struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, date *time.Time) (entity.JobResult, error)
}

func (p *funcPdf) Ingest(ctx context.Context, date *time.Time) (entity.JobResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.fn == nil {
		return entity.JobResult{ArticlesCreated: 1}, nil
	}
	return p.fn(ctx, date)
}

func (p *funcPdf) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type funcFetch struct {
	all func(ctx context.Context, opts fetch.FetchOptions) (entity.JobResult, error)
	one func(ctx context.Context, id int64) (entity.JobResult, error)
}

func (f *funcFetch) FetchAll(ctx context.Context, opts fetch.FetchOptions) (entity.JobResult, error) {
	if f.all == nil {
		return entity.JobResult{}, nil
	}
	return f.all(ctx, opts)
}

func (f *funcFetch) FetchOne(ctx context.Context, id int64) (entity.JobResult, error) {
	if f.one == nil {
		return entity.JobResult{SourcesFetched: 1}, nil
	}
	return f.one(ctx, id)
}
