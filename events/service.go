package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ukiyotei/battlehub/cache"
	"github.com/ukiyotei/battlehub/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Channel is the pub/sub channel game events are fanned out on.
const Channel = "events:game"

// Service persists game events asynchronously in batches and publishes
// each one on the pub/sub channel. Emit never blocks: when the buffer
// is full the event is dropped with a warning, which is acceptable for
// an at-least-once bookkeeping feed.
type Service struct {
	db     *gorm.DB
	pubsub cache.PubSub
	ch     chan GameEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Service and starts its background worker. pubsub may
// be nil, in which case events are only persisted.
func New(db *gorm.DB, pubsub cache.PubSub, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		pubsub: pubsub,
		ch:     make(chan GameEvent, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Emit enqueues an event for async persistence and fan-out.
func (svc *Service) Emit(ev GameEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case svc.ch <- ev:
	default:
		svc.logger.Warn("event channel full, dropping event",
			zap.String("type", ev.Type),
			zap.Int64("player_id", ev.PlayerID))
	}
}

// Stop flushes remaining events and shuts down the worker. It blocks
// until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.GameEventLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("event batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	handle := func(ev GameEvent) {
		payload, _ := json.Marshal(ev.Data)
		batch = append(batch, &model.GameEventLog{
			Type:     ev.Type,
			PlayerID: ev.PlayerID,
			Data:     datatypes.JSON(payload),
		})
		if svc.pubsub != nil {
			full, _ := json.Marshal(ev)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := svc.pubsub.Publish(ctx, Channel, string(full)); err != nil {
				svc.logger.Warn("event publish failed", zap.Error(err))
			}
			cancel()
		}
		if len(batch) >= 100 {
			flush()
		}
	}

	for {
		select {
		case ev := <-svc.ch:
			handle(ev)
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining events.
			for {
				select {
				case ev := <-svc.ch:
					handle(ev)
				default:
					flush()
					return
				}
			}
		}
	}
}
