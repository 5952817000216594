package evaluate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Group is a named, restartable sequence of reads. Each must yield the same
// reads in the same order on every call.
type Group interface {
	Name() string
	Each(ctx context.Context, fn func(sequence.Read) error) error
}

// Classifier is what the aggregator runs per read. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(read sequence.Read) classify.Outcome
}

// MemoryGroup serves reads held in memory.
type MemoryGroup struct {
	GroupName string
	Reads     []sequence.Read
}

// Name implements Group.
func (m *MemoryGroup) Name() string {
	return m.GroupName
}

// Each implements Group.
func (m *MemoryGroup) Each(ctx context.Context, fn func(sequence.Read) error) error {
	for _, r := range m.Reads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Detail is the per-read record handed to Visit.
type Detail struct {
	Group   string
	Index   int
	Read    sequence.Read
	Outcome classify.Outcome
}

// Aggregator classifies groups of reads with a fixed pool of workers.
type Aggregator struct {
	// Workers defaults to runtime.NumCPU().
	Workers int
	// OnGroup is called after each group completes.
	OnGroup func(GroupSummary)
	// Visit receives every read's outcome in input order. Returning an
	// error stops the evaluation.
	Visit func(Detail) error
}

type job struct {
	index int
	read  sequence.Read
}

type result struct {
	job
	outcome classify.Outcome
}

// Evaluate classifies every read of every group. Groups are processed one
// after another; reads within a group fan out across the workers and their
// outcomes are folded into counts by a single collector.
//
// On cancellation the summary so far is returned with the context error.
func (a *Aggregator) Evaluate(ctx context.Context, groups []Group, c Classifier) (*Summary, error) {
	summary := NewSummary()
	for _, g := range groups {
		counts, err := a.evaluateGroup(ctx, g, c)
		if err != nil {
			return summary, fmt.Errorf("group %s: %w", g.Name(), err)
		}
		gs := GroupSummary{Name: g.Name(), Counts: counts}
		summary.AddGroup(gs)
		if a.OnGroup != nil {
			a.OnGroup(gs)
		}
	}
	return summary, nil
}

func (a *Aggregator) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.NumCPU()
}

func (a *Aggregator) evaluateGroup(parent context.Context, g Group, c Classifier) (Counts, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	n := a.workers()
	jobs := make(chan job, n*4)
	results := make(chan result, n*4)

	var readErr error
	go func() {
		defer close(jobs)
		i := 0
		readErr = g.Each(ctx, func(r sequence.Read) error {
			select {
			case jobs <- job{index: i, read: r}:
				i++
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := result{job: j, outcome: c.Classify(j.read)}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	counts := NewCounts()
	pending := make(map[int]result)
	next := 0
	var visitErr error
	for res := range results {
		counts.Add(res.outcome)
		if a.Visit == nil || visitErr != nil {
			continue
		}
		pending[res.index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := a.Visit(Detail{Group: g.Name(), Index: r.index, Read: r.read, Outcome: r.outcome}); err != nil {
				visitErr = err
				cancel()
				break
			}
		}
	}

	if visitErr != nil {
		return counts, visitErr
	}
	if err := parent.Err(); err != nil {
		return counts, err
	}
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		return counts, readErr
	}
	return counts, nil
}
