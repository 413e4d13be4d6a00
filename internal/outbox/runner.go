// Package outbox relays notification rows to the push event stream. The
// insert that created the notification enqueues an outbox row in the same
// transaction; this runner does the delivery, so push problems can never
// block or fail the write path.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thisday-app/pushgate/internal/domain/outbox"
	"github.com/thisday-app/pushgate/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_picked_total", Help: "Messages picked into processing.",
	})
	mOk = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_processed_ok_total", Help: "Messages relayed successfully.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_processed_err_total", Help: "Handler errors.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "relay_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mLastBatch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_last_batch_size", Help: "Size of last picked batch.",
	})
)

type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler

	workers       int
	batchSize     int
	waitTime      time.Duration
	inProgressTTL time.Duration
}

func NewRunner(
	log *zap.Logger,
	repo outbox.Repository,
	dispatch outbox.GlobalHandler,
	workers int,
	batchSize int,
	waitTime time.Duration,
	inProgressTTL time.Duration,
) *Runner {
	return &Runner{
		log: log, repo: repo, dispatch: dispatch,
		workers: workers, batchSize: batchSize, waitTime: waitTime, inProgressTTL: inProgressTTL,
	}
}

func (r *Runner) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg)
	}
	go func() {
		wg.Wait()
		r.log.Info("relay workers stopped")
	}()
}

func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	r.log.Info("relay worker started", zap.Duration("wait", r.waitTime))

	ticker := time.NewTicker(r.waitTime)
	defer ticker.Stop()

	tr := otel.Tracer("outbox.relay")

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay worker stop")
			return

		case <-ticker.C:
			t0 := time.Now()

			tickCtx, span := tr.Start(ctx, "relay.tick")
			span.SetAttributes(
				attribute.Int("batch.limit", r.batchSize),
				attribute.String("in_progress_ttl", r.inProgressTTL.String()),
			)

			messages, err := r.repo.PickBatch(tickCtx, r.batchSize, r.inProgressTTL)
			if err != nil {
				span.RecordError(err)
				mErr.Inc()
				obs.WithTrace(tickCtx, r.log).Error("relay pick error", zap.Error(err))
				span.End()
				continue
			}
			mPicked.Add(float64(len(messages)))
			mLastBatch.Set(float64(len(messages)))

			okKeys := make([]string, 0, len(messages))

			for _, m := range messages {
				handler, herr := r.dispatch(m.Kind)
				if herr != nil {
					mErr.Inc()
					obs.WithTrace(tickCtx, r.log).Error("no handler for kind",
						zap.Int("kind", int(m.Kind)), zap.Error(herr))
					continue
				}

				if err := handler(tickCtx, m.Data); err != nil {
					mErr.Inc()
					obs.WithTrace(tickCtx, r.log).Error("handler error",
						zap.String("key", m.IdempotencyKey), zap.Error(err))
					continue
				}

				okKeys = append(okKeys, m.IdempotencyKey)
				mOk.Inc()
			}

			if err := r.repo.MarkSuccess(tickCtx, okKeys); err != nil {
				span.RecordError(err)
				mErr.Inc()
				obs.WithTrace(tickCtx, r.log).Error("mark success error", zap.Error(err))
			}

			span.End()
			mTickDur.Observe(time.Since(t0).Seconds())
		}
	}
}
