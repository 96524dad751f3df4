package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
	"github.com/miniblog/social-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher persists activities on a fixed set of workers, sharded by actor
// id so one actor's activities are stored in the order they happened.
type Dispatcher struct {
	workers []chan domain.Activity
	repo    ports.ActivityRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Activity, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Activity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues an activity on the worker responsible for its actor.
// When that worker's queue is full the activity is dropped rather than
// blocking the request that produced it.
func (d *Dispatcher) Record(a domain.Activity) {
	idx := d.shardIndex(a.ActorID)
	select {
	case d.workers[idx] <- a:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.ActivitiesRecordedTotal.WithLabelValues(string(a.Kind), "dropped").Inc()
		d.log.Warn().Str("actor_id", a.ActorID).Str("kind", string(a.Kind)).Msg("activity queue full, dropping")
	}
}

// shardIndex maps an actor id deterministically to a worker index.
func (d *Dispatcher) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Activity) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case a := <-ch:
			metrics.ActivityQueueDepth.WithLabelValues(label).Dec()
			d.store(ctx, id, a)
		}
	}
}

// drain stores whatever is still queued after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan domain.Activity) {
	label := strconv.Itoa(id)
	for {
		select {
		case a := <-ch:
			metrics.ActivityQueueDepth.WithLabelValues(label).Dec()
			d.store(context.Background(), id, a)
		default:
			return
		}
	}
}

func (d *Dispatcher) store(ctx context.Context, id int, a domain.Activity) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, &a); err != nil {
		metrics.ActivitiesRecordedTotal.WithLabelValues(string(a.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("actor_id", a.ActorID).
			Str("kind", string(a.Kind)).
			Int("worker_id", id).
			Msg("activity insert failed")
		return
	}
	metrics.ActivitiesRecordedTotal.WithLabelValues(string(a.Kind), "stored").Inc()
}
