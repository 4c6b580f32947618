package integration

import (
	"time"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
)

// Sync flow names, used as metric labels
const (
	FlowProducts   = "products"
	FlowCustomers  = "customers"
	FlowOrders     = "orders"
	FlowStockPull  = "stock_pull"
	FlowStockPush  = "stock_push"
	FlowGuestMerge = "guest_merge"
)

// Outcome is the result of syncing a single item
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SyncRecorder receives sync metrics
type SyncRecorder interface {
	RecordItem(flow string, outcome Outcome)
	RecordRun(flow string, status integration.SyncStatus, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordItem(string, Outcome)                             {}
func (nopRecorder) RecordRun(string, integration.SyncStatus, time.Duration) {}

// ProgressFunc is called once per processed item. err is set for failures
// and carries the skip reason for skips.
type ProgressFunc func(item string, outcome Outcome, err error)

// Option configures a sync service
type Option func(*options)

type options struct {
	logger   *zap.Logger
	recorder SyncRecorder
	progress ProgressFunc
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r SyncRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithProgress sets a per-item progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// run tallies one sync run and forwards every item to the recorder and the
// progress callback.
type run struct {
	flow    string
	opts    *options
	result  *integration.SyncResult
	started time.Time
}

func (o *options) startRun(flow string) *run {
	return &run{
		flow:    flow,
		opts:    o,
		result:  integration.NewSyncResult(),
		started: time.Now(),
	}
}

func (r *run) success(item string) {
	r.result.RecordSuccess()
	r.emit(item, OutcomeSuccess, nil)
}

func (r *run) skipped(item string, reason error) {
	r.result.RecordSkipped()
	r.emit(item, OutcomeSkipped, reason)
}

func (r *run) failed(item string, err error) {
	r.result.RecordFailure(item, err)
	r.emit(item, OutcomeFailed, err)
}

func (r *run) emit(item string, outcome Outcome, err error) {
	r.opts.recorder.RecordItem(r.flow, outcome)
	if r.opts.progress != nil {
		r.opts.progress(item, outcome, err)
	}
}

func (r *run) finish() *integration.SyncResult {
	r.result.Finish()
	elapsed := time.Since(r.started)
	r.opts.recorder.RecordRun(r.flow, r.result.Status, elapsed)
	r.opts.logger.Info("Sync run finished",
		zap.String("flow", r.flow),
		zap.String("status", r.result.Status.String()),
		zap.Int("total", r.result.TotalCount),
		zap.Int("success", r.result.SuccessCount),
		zap.Int("skipped", r.result.SkippedCount),
		zap.Int("failed", r.result.FailedCount),
		zap.Duration("elapsed", elapsed),
	)
	return r.result
}
