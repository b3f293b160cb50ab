package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs by name and keeps registration order.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry registers the given jobs. Nil jobs are skipped and a repeated
// name is an error.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Select returns the named jobs, or every job when no names are given.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		out := make([]Job, 0, len(r.order))
		for _, name := range r.order {
			out = append(out, r.byName[name])
		}
		return out, nil
	}
	out := make([]Job, 0, len(names))
	for _, name := range names {
		job, ok := r.byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown job %q (known: %s)", name, strings.Join(r.order, ", "))
		}
		out = append(out, job)
	}
	return out, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
