package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Job is a scheduled task run by the cron worker. Schedule is a standard
// five-field cron expression.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Registry holds jobs keyed by name; names double as lock keys, so they
// must be unique.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs are ignored.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds a job, rejecting blank and duplicate names.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %q registered twice", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Select narrows the registry to the named jobs, keeping registration
// order. No names selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.names[name]; !ok {
			return nil, fmt.Errorf("unknown cron job %q (known: %s)", name, strings.Join(r.Names(), ", "))
		}
		wanted[name] = true
	}
	selected := &Registry{names: map[string]struct{}{}}
	for _, job := range r.jobs {
		if wanted[job.Name()] {
			_ = selected.Register(job)
		}
	}
	return selected, nil
}

// Names lists job names alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
