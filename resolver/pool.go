package resolver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// LookupFunc is one blocking lookup run by a pool worker.
type LookupFunc func(ctx context.Context, species string) (*models.PlantDetails, error)

// Outcome carries a finished lookup back to the submitter.
type Outcome struct {
	Details *models.PlantDetails
	Err     error
}

type job struct {
	ctx     context.Context
	species string
	fn      LookupFunc
	out     chan Outcome
}

// Pool bounds how many lookups run at once. Requests past the queue capacity
// are refused immediately rather than piling up behind a slow site.
type Pool struct {
	jobs    chan job
	timeout time.Duration

	wg sync.WaitGroup

	shutdown  chan struct{}
	closeOnce sync.Once
}

// NewPool starts the worker goroutines.
func NewPool(cfg config.LookupConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		jobs:     make(chan job, cfg.QueueSize),
		timeout:  cfg.Timeout,
		shutdown: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues one lookup and returns the channel its outcome arrives on.
// The channel is buffered, so an abandoned submitter never blocks a worker.
func (p *Pool) Submit(ctx context.Context, species string, fn LookupFunc) <-chan Outcome {
	out := make(chan Outcome, 1)
	if err := p.enqueue(job{ctx: ctx, species: species, fn: fn, out: out}); err != nil {
		out <- Outcome{Err: err}
	}
	return out
}

// enqueue sends one job. Close can shut the jobs channel between the shutdown
// check and the send, so the send is guarded: the panic from a send on the
// closed channel is recovered and reported as the shutdown fault.
func (p *Pool) enqueue(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errShuttingDown()
		}
	}()

	select {
	case <-p.shutdown:
		return errShuttingDown()
	default:
	}

	select {
	case p.jobs <- j:
		return nil
	default:
		return faults.New(faults.CodeService, http.StatusServiceUnavailable, "lookup queue is full")
	}
}

func errShuttingDown() error {
	return faults.New(faults.CodeService, http.StatusServiceUnavailable, "lookup service is shutting down")
}

// Close stops accepting work, lets queued lookups finish and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.shutdown)
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.out <- Outcome{Err: faults.From(err)}
			continue
		}
		ctx := j.ctx
		cancel := func() {}
		if p.timeout > 0 {
			ctx, cancel = context.WithTimeout(j.ctx, p.timeout)
		}
		details, err := j.fn(ctx, j.species)
		cancel()
		j.out <- Outcome{Details: details, Err: err}
	}
}
