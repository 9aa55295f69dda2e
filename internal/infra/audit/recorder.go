package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull      = errors.New("audit queue is full")
	ErrRecorderClosed = errors.New("audit recorder is closed")
)

type Recorder interface {
	Record(entry Entry)
	Close()
}

// QueueRecorder hands entries to a fixed pool of workers so a slow
// database never holds up a checkout request.
type QueueRecorder struct {
	repo        Repository
	log         *logrus.Entry
	queue       chan Entry
	workerCount int
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
	saveTimeout time.Duration
}

func NewQueueRecorder(repo Repository, log *logrus.Logger, workerCount, queueCapacity int) *QueueRecorder {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	return &QueueRecorder{
		repo:        repo,
		log:         log.WithField("component", "audit"),
		queue:       make(chan Entry, queueCapacity),
		workerCount: workerCount,
		saveTimeout: 2 * time.Second,
	}
}

func (r *QueueRecorder) StartProcessing() {
	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.processEntries()
	}
}

func (r *QueueRecorder) Record(entry Entry) {
	if err := r.enqueue(entry); err != nil {
		r.log.WithField("operation", entry.Operation).Warn("Audit entry dropped: ", err)
	}
}

func (r *QueueRecorder) enqueue(entry Entry) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRecorderClosed
	}
	select {
	case r.queue <- entry:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued entries to be written. Entries
// recorded afterwards are dropped.
func (r *QueueRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *QueueRecorder) processEntries() {
	defer r.wg.Done()
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.saveTimeout)
		if _, err := r.repo.CreateExchange(ctx, entry.toModel()); err != nil {
			r.log.Errorf("Failed to store exchange %s: %v", entry.Operation, err)
		}
		cancel()
	}
}

type NopRecorder struct{}

func (NopRecorder) Record(Entry) {}
func (NopRecorder) Close()       {}
