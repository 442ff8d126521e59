package peering

import (
	"context"
	"time"

	"a2a_registry/internal/model"

	"github.com/sirupsen/logrus"
)

// Worker periodically triggers SyncAllPeers. Disabled by default: peer sync
// is normally driven by explicit API calls or an external scheduler.
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	service  *Service
	logger   *logrus.Entry
	interval time.Duration
}

// WorkerConfig holds the configuration for the peer sync worker
type WorkerConfig struct {
	Service     *Service
	Logger      *logrus.Entry
	IntervalSec int
}

// NewWorker creates a new peer sync worker
func NewWorker(cfg *WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	interval := time.Duration(cfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Worker{
		ctx:      ctx,
		cancel:   cancel,
		service:  cfg.Service,
		logger:   cfg.Logger.WithField("component", "peer-sync-worker"),
		interval: interval,
	}
}

// Start begins the periodic sync loop
func (w *Worker) Start() {
	w.logger.Info("Starting peer sync worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.ctx.Done():
				w.logger.Info("Stopping peer sync worker...")
				return
			}
		}
	}()
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.cancel()
}

func (w *Worker) runOnce() {
	records, err := w.service.SyncAllPeers(w.ctx, model.SyncTypeScheduled)
	if err != nil {
		w.logger.WithError(err).Error("scheduled sync pass failed")
		return
	}
	if len(records) > 0 {
		w.logger.WithField("peers_synced", len(records)).Info("scheduled sync pass completed")
	}
}
