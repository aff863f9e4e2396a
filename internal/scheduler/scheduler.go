package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("scheduler stopped")

// Job is one unit of work for a user lane.
type Job func(ctx context.Context)

// Scheduler runs jobs on a fixed pool of workers. Jobs sharing a key run one
// at a time in submission order; different keys run in parallel.
type Scheduler struct {
	workers int
	log     *zap.SugaredLogger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stopped bool
	queue   chan *lane
	lanes   map[int64]*lane
}

type lane struct {
	key  int64
	jobs []Job
}

type Config struct {
	Workers int
}

func NewScheduler(config Config, log *zap.SugaredLogger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	queueSize := config.Workers * 2
	if queueSize < 10 {
		queueSize = 10
	}

	return &Scheduler{
		workers: config.Workers,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan *lane, queueSize),
		lanes:   make(map[int64]*lane),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.log.Infow("Scheduler started", "workers", s.workers)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop cancels running jobs, drops queued ones and waits for the workers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.running = false
	s.mu.Unlock()

	s.log.Infow("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
	s.log.Infow("Scheduler stopped")
}

// Submit queues job on the lane for key. It blocks only while the shared
// queue is full.
func (s *Scheduler) Submit(key int64, job Job) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if l, busy := s.lanes[key]; busy {
		l.jobs = append(l.jobs, job)
		s.mu.Unlock()
		return nil
	}
	l := &lane{key: key, jobs: []Job{job}}
	s.lanes[key] = l
	s.mu.Unlock()

	select {
	case s.queue <- l:
		return nil
	case <-s.ctx.Done():
		return ErrStopped
	}
}

// Pending reports how many jobs wait on the lane for key, including the
// one being run.
func (s *Scheduler) Pending(key int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[key]; ok {
		return len(l.jobs)
	}
	return 0
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.log.Debugw("Worker started", "worker", id)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Debugw("Worker stopped", "worker", id)
			return
		case l := <-s.queue:
			s.drain(id, l)
		}
	}
}

// drain runs the lane until it is empty. The lane stays registered while a
// job runs so later submissions for the same key queue behind it.
func (s *Scheduler) drain(id int, l *lane) {
	for {
		s.mu.Lock()
		if len(l.jobs) == 0 || s.ctx.Err() != nil {
			delete(s.lanes, l.key)
			s.mu.Unlock()
			return
		}
		job := l.jobs[0]
		s.mu.Unlock()

		s.run(id, l.key, job)

		s.mu.Lock()
		l.jobs = l.jobs[1:]
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(id int, key int64, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Job panicked", "worker", id, "key", key, "panic", r)
		}
	}()
	job(s.ctx)
}
