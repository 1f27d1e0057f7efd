package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by SubmitJob when the job queue has no room.
var ErrQueueFull = errors.New("job queue full")

// Job represents a unit of background work, such as removing files that no row
// references any more.
type Job interface {
	Execute(ctx context.Context) error // The method that performs the actual work
	ID() string                        // A unique identifier for the job
}

// Worker is responsible for processing jobs.
// It runs in its own goroutine and pulls jobs from its dedicated channel.
type Worker struct {
	ID         int
	WorkerPool chan chan Job   // A pool of channels, used to register this worker's job channel
	JobChannel chan Job        // A channel specific to this worker, to receive jobs
	Quit       chan struct{}   // Closed to stop the worker
	Wg         *sync.WaitGroup // To signal when this worker has finished
	ctx        context.Context
	logger     *logrus.Logger
}

// NewWorker creates a new Worker.
func NewWorker(ctx context.Context, id int, workerPool chan chan Job, wg *sync.WaitGroup, logger *logrus.Logger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Quit:       make(chan struct{}),
		Wg:         wg,
		ctx:        ctx,
		logger:     logger,
	}
}

// Start makes the Worker listen for jobs on its JobChannel.
func (w Worker) Start() {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		log := w.logger.WithField("worker", w.ID)
		for {
			// Register the current worker's JobChannel to the worker pool.
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-w.Quit:
				log.Debug("Worker stopping")
				return
			}

			select {
			case job := <-w.JobChannel:
				jobLog := log.WithField("job_id", job.ID())
				jobLog.Debug("Started job")
				if err := job.Execute(w.ctx); err != nil {
					jobLog.WithError(err).Error("Job failed")
				} else {
					jobLog.Debug("Finished job")
				}
			case <-w.Quit:
				log.Debug("Worker stopping")
				return
			}
		}
	}()
}

// Stop signals the worker to stop once its current job is done.
func (w Worker) Stop() {
	close(w.Quit)
}

// Dispatcher manages a pool of workers and dispatches jobs to them.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job // A pool of worker job channels
	JobQueue   chan Job      // A buffered channel for incoming jobs
	Workers    []Worker
	Wg         sync.WaitGroup // To wait for all workers to finish
	Quit       chan struct{}  // Closed to stop the dispatch loop
	done       chan struct{}
	logger     *logrus.Logger
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(maxWorkers int, jobQueueSize int, logger *logrus.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		Quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the dispatcher and its workers. Jobs receive a context derived from ctx
// that is cancelled by Stop.
func (d *Dispatcher) Run(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.logger.WithField("workers", d.MaxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(ctx, i, d.WorkerPool, &d.Wg, d.logger)
		d.Workers = append(d.Workers, worker)
		worker.Start()
	}

	go d.dispatch()
}

// dispatch hands queued jobs to idle workers, one at a time, in submission order.
func (d *Dispatcher) dispatch() {
	defer close(d.done)
	for {
		select {
		case job := <-d.JobQueue:
			select {
			case jobChannel := <-d.WorkerPool:
				jobChannel <- job
			case <-d.Quit:
				d.logger.WithField("job_id", job.ID()).Warn("Dispatcher stopped before job ran")
				return
			}
		case <-d.Quit:
			return
		}
	}
}

// SubmitJob adds a job to the job queue without blocking.
func (d *Dispatcher) SubmitJob(job Job) error {
	select {
	case d.JobQueue <- job:
		d.logger.WithField("job_id", job.ID()).Debug("Job submitted")
		return nil
	default:
		d.logger.WithField("job_id", job.ID()).Warn("Job queue full, job dropped")
		return ErrQueueFull
	}
}

// Stop shuts down the dispatcher, lets running jobs finish and waits for every
// worker to exit. Jobs still queued are dropped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.Quit)
		if d.cancel == nil {
			return
		}
		<-d.done
		for _, worker := range d.Workers {
			worker.Stop()
		}
		d.Wg.Wait()
		d.cancel()
		if n := len(d.JobQueue); n > 0 {
			d.logger.WithField("dropped", n).Warn("Dispatcher stopped with queued jobs")
		}
		d.logger.Info("Dispatcher stopped")
	})
}
