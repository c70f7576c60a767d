package offline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/quiz"
)

type BatchAck struct {
	ClientKey string
	ResultID  string
	Result    *quiz.GradedResult
}

type BatchRejection struct {
	ClientKey string
	Reason    string
}

type BatchResponse struct {
	Acks       []BatchAck
	Rejections []BatchRejection
}

// BatchSubmitter sends pending attempts to the server's batch endpoint.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, records []AttemptRecord) (BatchResponse, error)
}

type DrainReport struct {
	Submitted  int
	Resolved   []int64
	Pending    []int64
	Rejections []BatchRejection
}

func (r DrainReport) Synced() int {
	return len(r.Resolved)
}

// Coordinator drains pending attempts to the server. At most one drain runs at
// a time; callers arriving during a drain share its report.
type Coordinator struct {
	monitor *Monitor
	remote  BatchSubmitter
	store   Store
	log     *logger.Logger
	now     func() time.Time

	group singleflight.Group
}

func NewCoordinator(monitor *Monitor, remote BatchSubmitter, store Store, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		monitor: monitor,
		remote:  remote,
		store:   store,
		log:     log.With("component", "offline.Coordinator"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DrainPending runs a drain or joins the one in flight. The shared drain is
// detached from ctx, so a caller giving up does not fail the others.
func (c *Coordinator) DrainPending(ctx context.Context) (DrainReport, error) {
	drainCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan("drain", func() (any, error) {
		return c.drain(drainCtx)
	})

	select {
	case <-ctx.Done():
		return DrainReport{}, ctx.Err()
	case res := <-results:
		if res.Shared {
			c.log.Debug("joined in-flight drain")
		}
		report, _ := res.Val.(DrainReport)
		return report, res.Err
	}
}

// Watch drains on every offline to online transition of the monitor. The
// returned function stops watching and waits for drains it started.
func (c *Coordinator) Watch(ctx context.Context) (unsubscribe func()) {
	var (
		mu      sync.Mutex
		stopped bool
		running sync.WaitGroup
	)

	cancel := c.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		running.Add(1)
		go func() {
			defer running.Done()
			report, err := c.DrainPending(context.WithoutCancel(ctx))
			if err != nil {
				c.log.Warn("drain after reconnect failed", "error", err)
				return
			}
			if report.Submitted > 0 {
				c.log.Info("drained pending attempts",
					"submitted", report.Submitted,
					"synced", report.Synced(),
					"pending", len(report.Pending),
				)
			}
		}()
	})

	return func() {
		cancel()
		mu.Lock()
		stopped = true
		mu.Unlock()
		running.Wait()
	}
}

func (c *Coordinator) drain(ctx context.Context) (DrainReport, error) {
	if !c.monitor.IsOnline() {
		return DrainReport{}, ErrOffline
	}

	records, err := c.store.UnresolvedAttempts(ctx)
	if err != nil {
		return DrainReport{}, err
	}
	if len(records) == 0 {
		return DrainReport{}, nil
	}

	response, err := c.remote.SubmitBatch(ctx, records)
	if err != nil {
		var submissionErr *SubmissionError
		if !errors.Is(err, ErrAuthExpired) && !errors.As(err, &submissionErr) {
			err = &SubmissionError{Err: err}
		}
		return DrainReport{Submitted: len(records), Pending: localIDs(records)}, err
	}

	byKey := make(map[string]AttemptRecord, len(records))
	for _, record := range records {
		byKey[record.ClientKey] = record
	}

	report := DrainReport{
		Submitted:  len(records),
		Rejections: response.Rejections,
	}
	resolved := make(map[int64]struct{}, len(response.Acks))
	var storeErr error
	for _, ack := range response.Acks {
		record, ok := byKey[ack.ClientKey]
		if !ok || ack.ResultID == "" {
			c.log.Warn("ignoring acknowledgement for unknown attempt", "client_key", ack.ClientKey)
			continue
		}
		if _, done := resolved[record.LocalID]; done {
			continue
		}

		resolution := Resolution{ResultID: ack.ResultID, SyncedAt: c.now()}
		if ack.Result != nil {
			graded := ack.Result.WithoutAnswerKey()
			resolution.Graded = &graded
		}
		err := c.store.MarkResolved(ctx, record.LocalID, resolution)
		if err != nil {
			c.log.Error("marking attempt resolved failed", "local_id", record.LocalID, "error", err)
			if storeErr == nil {
				storeErr = err
			}
			continue
		}
		resolved[record.LocalID] = struct{}{}
		report.Resolved = append(report.Resolved, record.LocalID)
	}

	for _, record := range records {
		if _, ok := resolved[record.LocalID]; !ok {
			report.Pending = append(report.Pending, record.LocalID)
		}
	}
	for _, rejection := range response.Rejections {
		c.log.Warn("server rejected pending attempt",
			"client_key", rejection.ClientKey,
			"reason", rejection.Reason,
		)
	}
	return report, storeErr
}

func localIDs(records []AttemptRecord) []int64 {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.LocalID)
	}
	return ids
}
