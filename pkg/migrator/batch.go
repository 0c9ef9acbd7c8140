package migrator

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/market"
	"github.com/pseudomuto/chsync/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// TargetLocks hands out one mutex per target table so that two migrations
// never race a DROP against a CREATE on the same name. The zero value is
// ready to use.
type TargetLocks struct {
	mu    sync.Mutex
	locks map[schema.QualifiedName]*sync.Mutex
}

// Lock blocks until name is free and returns the function that releases it.
func (l *TargetLocks) Lock(name schema.QualifiedName) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[schema.QualifiedName]*sync.Mutex)
	}
	m, ok := l.locks[name]
	if !ok {
		m = new(sync.Mutex)
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ExpandJobs turns configured table jobs into concrete jobs, one per market
// for templated names. When only one side of a job is templated the other
// side is reused for every market.
//
// Example:
//
//	jobs, _ := migrator.ExpandJobs([]config.TableJob{
//		{Source: "app.events_{market}", Target: "test.events_{market}"},
//	}, []string{"sg", "id"})
//	// app.events_sg -> test.events_sg, app.events_id -> test.events_id
func ExpandJobs(tables []config.TableJob, markets []string) ([]Job, error) {
	var jobs []Job
	for _, t := range tables {
		target := t.Target
		if target == "" {
			target = t.Source
		}

		sources := market.Expand(t.Source, markets)
		targets := market.Expand(target, markets)
		if len(sources) == 0 || len(targets) == 0 {
			return nil, errors.Errorf("%s: no markets to expand placeholders with", t.Source)
		}

		for i := range max(len(sources), len(targets)) {
			src, err := schema.ParseQualifiedName(pick(sources, i))
			if err != nil {
				return nil, errors.Wrap(err, "invalid source")
			}
			dst, err := schema.ParseQualifiedName(pick(targets, i))
			if err != nil {
				return nil, errors.Wrap(err, "invalid target")
			}

			jobs = append(jobs, Job{
				Request: Request{
					Source:        src,
					Target:        dst,
					DropCluster:   t.DropCluster,
					CreateCluster: t.CreateCluster,
				},
				CopyData: t.CopyData,
			})
		}
	}

	return jobs, nil
}

func pick(names []string, i int) string {
	if len(names) == 1 {
		return names[0]
	}
	return names[i]
}

// RunBatch syncs every job. Jobs that share a target run one after another
// in the order given; distinct targets run concurrently, at most concurrency
// at a time. A failed job does not stop the others.
//
// Results line up with jobs. The error summarizes how many jobs failed.
func RunBatch(ctx context.Context, s *Syncer, jobs []Job, concurrency int) ([]*SyncResult, error) {
	results := make([]*SyncResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))

	for _, group := range groupByTarget(jobs) {
		g.Go(func() error {
			for _, i := range group {
				if err := ctx.Err(); err != nil {
					results[i] = &SyncResult{Job: jobs[i], Err: err, Error: err.Error()}
					continue
				}
				results[i], _ = s.Sync(ctx, jobs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, errors.Errorf("%d of %d jobs failed", failed, len(jobs))
	}

	return results, nil
}

// groupByTarget returns job indexes grouped by target, groups ordered by
// first appearance.
func groupByTarget(jobs []Job) [][]int {
	index := make(map[schema.QualifiedName]int)
	var groups [][]int
	for i, j := range jobs {
		g, ok := index[j.Target]
		if !ok {
			g = len(groups)
			index[j.Target] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
