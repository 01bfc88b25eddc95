package providers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultRegistryWorkers = 4

// Registry routes URLs to the provider owning them. Providers are expected
// to cover disjoint URL spaces; Register enforces it.
type Registry struct {
	log       Logger
	workers   int
	providers []Provider
}

func NewRegistry(log Logger, ps ...Provider) (*Registry, error) {
	if log == nil {
		log = NopLogger
	}

	r := &Registry{log: log, workers: defaultRegistryWorkers}
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// SetWorkers bounds how many sites are queried at once by batch operations.
func (r *Registry) SetWorkers(n int) {
	r.workers = max(1, n)
}

// Register adds p unless its name is taken or its URL space intersects a
// registered provider's.
func (r *Registry) Register(p Provider) error {
	for _, e := range r.providers {
		if e.Name() == p.Name() {
			return fmt.Errorf("site %q registered twice", p.Name())
		}
		if e.OwnsURL(p.BaseURL()) {
			return &OverlapError{Site: p.Name(), Existing: e.Name(), URL: p.BaseURL()}
		}
		if p.OwnsURL(e.BaseURL()) {
			return &OverlapError{Site: p.Name(), Existing: e.Name(), URL: e.BaseURL()}
		}
	}

	r.providers = append(r.providers, p)
	return nil
}

// Resolve returns the first provider owning url, or ErrNoOwner.
func (r *Registry) Resolve(url string) (Provider, error) {
	i := r.ownerIndex(url)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", url, ErrNoOwner)
	}

	return r.providers[i], nil
}

func (r *Registry) ownerIndex(url string) int {
	for i, p := range r.providers {
		if p.OwnsURL(url) {
			return i
		}
	}

	return -1
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}

	return nil, false
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// UpdateReport is the merged outcome of an update check across sites. The
// three URL lists follow baseline order and never share an entry.
type UpdateReport struct {
	Updated     []string
	NotUpdated  []string
	Unsupported []string
	Failed      map[string]error
}

// CheckAll runs CheckUpdates on every site that owns part of baseline, a few
// sites at a time. A failing site only affects its own series, which then
// count as not updated.
func (r *Registry) CheckAll(ctx context.Context, baseline []LastChapter) UpdateReport {
	report := UpdateReport{
		Updated:     []string{},
		NotUpdated:  []string{},
		Unsupported: []string{},
		Failed:      map[string]error{},
	}

	groups := make([][]LastChapter, len(r.providers))
	owner := make(map[string]int, len(baseline))

	for _, lc := range baseline {
		if _, ok := owner[lc.URL]; ok {
			continue
		}

		i := r.ownerIndex(lc.URL)
		owner[lc.URL] = i
		if i >= 0 {
			groups[i] = append(groups[i], lc)
		}
	}

	var (
		mu      sync.Mutex
		updated = make(map[string]struct{})
		g       errgroup.Group
	)
	g.SetLimit(r.workers)

	for i, p := range r.providers {
		if len(groups[i]) == 0 {
			continue
		}

		g.Go(func() error {
			up, _, err := p.CheckUpdates(ctx, groups[i])

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				LogFailure(r.log, p.Name(), "check updates", err)
				report.Failed[p.Name()] = err
			}
			for _, u := range up {
				updated[u] = struct{}{}
			}
			r.log.Debugf("%s: %d/%d series updated", p.Name(), len(up), len(groups[i]))

			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{}, len(baseline))
	for _, lc := range baseline {
		if _, ok := seen[lc.URL]; ok {
			continue
		}
		seen[lc.URL] = struct{}{}

		switch _, isUpdated := updated[lc.URL]; {
		case owner[lc.URL] < 0:
			report.Unsupported = append(report.Unsupported, lc.URL)
		case isUpdated:
			report.Updated = append(report.Updated, lc.URL)
		default:
			report.NotUpdated = append(report.NotUpdated, lc.URL)
		}
	}

	return report
}

// SearchResult holds one site's answer to a fan-out search.
type SearchResult struct {
	Site  string
	Cards []MangaCard
	Err   error
}

// SearchAll queries every registered site. Results come back in
// registration order whatever order the sites answered in.
func (r *Registry) SearchAll(ctx context.Context, query string, page int) []SearchResult {
	out := make([]SearchResult, len(r.providers))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, p := range r.providers {
		g.Go(func() error {
			cards, err := p.Search(ctx, query, page)
			if err != nil {
				LogFailure(r.log, p.Name(), "search", err)
			}
			out[i] = SearchResult{Site: p.Name(), Cards: cards, Err: err}

			return nil
		})
	}
	_ = g.Wait()

	return out
}
