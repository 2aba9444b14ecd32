// services/hal/internal/worker/measure_worker.go
package worker

import (
	"context"
	"errors"
	"time"

	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/util"
)

// MeasureWorker services the adaptors behind one worker key from a single
// goroutine. Adaptors that drive timing-critical hardware rely on this: a
// device is never triggered or collected concurrently with itself.
type MeasureWorker struct {
	cfg  halcore.WorkerConfig
	reqQ chan halcore.MeasureReq
	sink chan<- halcore.Result // fan-in sink owned by service

	pending map[string]*collectItem // devID -> in-flight measurement
	again   map[string]bool         // devID -> prio request arrived while in flight
	timer   *time.Timer
}

type collectItem struct {
	id      string
	adaptor halcore.Adaptor
	due     time.Time
	retries int
}

func New(cfg halcore.WorkerConfig, sink chan<- halcore.Result) *MeasureWorker {
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 100 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 15 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 6
	}
	if cfg.InputQueueSize <= 0 {
		cfg.InputQueueSize = 16
	}
	return &MeasureWorker{
		cfg:     cfg,
		reqQ:    make(chan halcore.MeasureReq, cfg.InputQueueSize),
		sink:    sink,
		pending: map[string]*collectItem{},
		again:   map[string]bool{},
		timer:   time.NewTimer(time.Hour),
	}
}

// Submit queues a request without blocking. Priority requests wait briefly
// for queue space.
func (w *MeasureWorker) Submit(req halcore.MeasureReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
	}
	if !req.Prio {
		return false
	}
	select {
	case w.reqQ <- req:
		return true
	case <-time.After(5 * time.Millisecond):
		return false
	}
}

func (w *MeasureWorker) Start(ctx context.Context) {
	if !w.timer.Stop() {
		util.DrainTimer(w.timer)
	}
	go w.run(ctx)
}

func (w *MeasureWorker) run(ctx context.Context) {
	for {
		if next := w.nextDue(); next.IsZero() {
			util.ResetTimer(w.timer, time.Hour)
		} else {
			util.ResetTimer(w.timer, time.Until(next))
		}
		select {
		case <-ctx.Done():
			return
		case req := <-w.reqQ:
			w.accept(ctx, req)
		case <-w.timer.C:
			w.collectDue(ctx, time.Now())
		}
	}
}

func (w *MeasureWorker) accept(ctx context.Context, req halcore.MeasureReq) {
	if _, busy := w.pending[req.ID]; busy {
		if req.Prio {
			w.again[req.ID] = true
		}
		return
	}
	it := &collectItem{id: req.ID, adaptor: req.Adaptor}
	if err := w.trigger(ctx, it); err != nil {
		w.emit(halcore.Result{ID: req.ID, Err: err})
		return
	}
	w.pending[req.ID] = it
}

func (w *MeasureWorker) trigger(ctx context.Context, it *collectItem) error {
	tctx, cancel := context.WithTimeout(ctx, w.cfg.TriggerTimeout)
	after, err := it.adaptor.Trigger(tctx)
	cancel()
	if err != nil {
		return err
	}
	it.retries = 0
	it.due = time.Now().Add(after)
	return nil
}

func (w *MeasureWorker) collectDue(ctx context.Context, now time.Time) {
	for id, it := range w.pending {
		if now.Before(it.due) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CollectTimeout)
		s, err := it.adaptor.Collect(cctx)
		cancel()

		switch {
		case err == nil:
			delete(w.pending, id)
			delete(w.again, id)
			w.emit(halcore.Result{ID: id, Sample: s})
		case errors.Is(err, halcore.ErrNotReady) && it.retries < w.cfg.MaxRetries:
			it.retries++
			it.due = now.Add(w.cfg.RetryBackoff)
		default:
			delete(w.pending, id)
			w.emit(halcore.Result{ID: id, Err: err})
			if w.again[id] {
				delete(w.again, id)
				if w.trigger(ctx, it) == nil {
					w.pending[id] = it
				}
			}
		}
	}
}

// emit blocks: results are never dropped, the service drains the sink.
func (w *MeasureWorker) emit(r halcore.Result) { w.sink <- r }

func (w *MeasureWorker) nextDue() time.Time {
	var min time.Time
	for _, it := range w.pending {
		if min.IsZero() || it.due.Before(min) {
			min = it.due
		}
	}
	return min
}
