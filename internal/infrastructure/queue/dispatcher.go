package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// DepthObserver receives the backlog of a worker after every enqueue and
// dequeue.
type DepthObserver interface {
	ObserveQueueDepth(workerID, depth int)
}

// Dispatcher writes audit entries to the repository off the request path.
// Entries are routed to a fixed set of workers by consistent hashing on
// the subject id, so entries about one volunteer are written in order.
type Dispatcher struct {
	workers  []chan domain.AuditEntry
	repo     ports.AuditRepository
	observer DepthObserver
	log      zerolog.Logger
	wg       sync.WaitGroup
}

var _ ports.AuditRecorder = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. observer may be nil.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, observer DepthObserver, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.AuditEntry, numWorkers),
		repo:     repo,
		observer: observer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// drains what is already queued and stops; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record queues an entry for the worker responsible for its subject. It
// never blocks: when that worker's buffer is full the entry is dropped and
// logged.
func (d *Dispatcher) Record(entry domain.AuditEntry) {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	idx := d.shardIndex(entry.SubjectID)
	select {
	case d.workers[idx] <- entry:
		d.observe(idx)
	default:
		d.log.Warn().
			Str("kind", string(entry.Kind)).
			Str("subject_id", entry.SubjectID).
			Int("worker_id", idx).
			Msg("audit queue full, entry dropped")
	}
}

// shardIndex maps a subject id deterministically to a worker index.
func (d *Dispatcher) shardIndex(subjectID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) observe(id int) {
	if d.observer != nil {
		d.observer.ObserveQueueDepth(id, len(d.workers[id]))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEntry) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case entry := <-ch:
			d.write(context.WithoutCancel(ctx), id, entry)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan domain.AuditEntry) {
	for {
		select {
		case entry := <-ch:
			d.write(context.Background(), id, entry)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, entry domain.AuditEntry) {
	d.observe(id)

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, &entry); err != nil {
		d.log.Error().Err(err).
			Str("kind", string(entry.Kind)).
			Str("subject_id", entry.SubjectID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
