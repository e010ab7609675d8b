package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"taxtrack/internal/apperr"
	"taxtrack/internal/model"
	"taxtrack/internal/service"
	"taxtrack/internal/tax"

	"github.com/google/uuid"
)

const (
	// defaultInterGroupDelay spaces the sequential refetches so a save does
	// not fire every dependent query in one burst against the server's rate
	// limiter.
	defaultInterGroupDelay = 50 * time.Millisecond
	// defaultSettleDelay follows each invalidation before the first refetch.
	defaultSettleDelay = 100 * time.Millisecond
	defaultRetryBase   = 1 * time.Second
	defaultRetryCap    = 10 * time.Second
)

// Config wires a Coordinator.
type Config struct {
	Store     *Store
	Fetcher   Fetcher
	Updater   Updater
	Lists     []ListGroupSpec
	Summaries []SummaryGroupSpec

	InterGroupDelay time.Duration
	SettleDelay     time.Duration
	RetryBase       time.Duration
	RetryCap        time.Duration

	// Sleep is replaceable in tests; the default honors ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration)
	// BaseCtx bounds background reconciliations. Defaults to Background:
	// a reconciliation outlives the request that triggered it.
	BaseCtx context.Context
}

// Coordinator owns every mutation of the Store. After a successful write the
// caches are patched optimistically, then detail, list and summary groups are
// refetched one at a time; pushed record-updated events run the identical
// protocol. Reconciliations for the same record key never interleave.
type Coordinator struct {
	store     *Store
	fetcher   Fetcher
	updater   Updater
	lists     []ListGroupSpec
	summaries []SummaryGroupSpec

	interGroupDelay time.Duration
	settleDelay     time.Duration
	retryBase       time.Duration
	retryCap        time.Duration

	sleep   func(ctx context.Context, d time.Duration)
	baseCtx context.Context

	mu       sync.Mutex
	keyLocks map[model.RecordKey]*sync.Mutex
}

func New(cfg Config) *Coordinator {
	c := &Coordinator{
		store:           cfg.Store,
		fetcher:         cfg.Fetcher,
		updater:         cfg.Updater,
		lists:           cfg.Lists,
		summaries:       cfg.Summaries,
		interGroupDelay: cfg.InterGroupDelay,
		settleDelay:     cfg.SettleDelay,
		retryBase:       cfg.RetryBase,
		retryCap:        cfg.RetryCap,
		sleep:           cfg.Sleep,
		baseCtx:         cfg.BaseCtx,
		keyLocks:        make(map[model.RecordKey]*sync.Mutex),
	}
	if c.store == nil {
		c.store = NewStore()
	}
	if c.interGroupDelay == 0 {
		c.interGroupDelay = defaultInterGroupDelay
	}
	if c.settleDelay == 0 {
		c.settleDelay = defaultSettleDelay
	}
	if c.retryBase == 0 {
		c.retryBase = defaultRetryBase
	}
	if c.retryCap == 0 {
		c.retryCap = defaultRetryCap
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	if c.baseCtx == nil {
		c.baseCtx = context.Background()
	}
	return c
}

// Store exposes the cache for read-only view access.
func (c *Coordinator) Store() *Store {
	return c.store
}

// SaveResult reports a completed save. Caveat is set when the write failed
// ambiguously but the follow-up re-fetch showed it had committed. Done closes
// once the background reconciliation finishes; only the close of an edit
// session should wait on it.
type SaveResult struct {
	Record service.TaxRecordResponse
	Caveat bool
	Done   <-chan struct{}
}

// Save runs one tab-scoped save end to end: local permission gate and
// validation (zero network calls on failure), the write, the synchronous
// optimistic cache patch, and the background refetch sequence.
func (c *Coordinator) Save(ctx context.Context, actor model.ActorContext, employeeID uuid.UUID, key model.RecordKey, req service.SaveRecordRequest) (SaveResult, error) {
	rec, ok := c.store.Detail(key)
	if !ok {
		fetched, err := c.fetcher.FetchRecord(ctx, key)
		if err != nil {
			return SaveResult{}, fmt.Errorf("record %s is not loaded: %w", key, err)
		}
		c.store.setDetail(fetched)
		rec = fetched
	}

	if obligation, scoped := tabObligation(req.Tab); scoped {
		if err := tax.CheckSubmission(actor, employeeID, &rec.MonthlyTaxRecord, obligation); err != nil {
			return SaveResult{}, err
		}
	}
	candidate := buildCandidate(rec.MonthlyTaxRecord, req)
	if req.Tab != tax.TabGeneral {
		if err := tax.ValidateSave(actor, &candidate); err != nil {
			return SaveResult{}, err
		}
	}

	updated, err := c.updater.UpdateRecord(ctx, rec.ID, req)
	caveat := false
	if err != nil {
		var ambiguous *apperr.AmbiguousServerError
		if !errors.As(err, &ambiguous) {
			return SaveResult{}, err
		}
		// The write may still have committed server-side. Exactly one
		// re-fetch establishes ground truth before anything is reported.
		fresh, fetchErr := c.fetcher.FetchRecord(ctx, key)
		if fetchErr != nil || !reflectsSave(rec, fresh, req) {
			return SaveResult{}, err
		}
		log.Printf("syncer: ambiguous write on %s resolved as committed", key)
		updated = fresh
		caveat = true
	}

	c.store.patchRecord(updated)
	done := c.reconcileAsync(key)

	return SaveResult{Record: updated, Caveat: caveat, Done: done}, nil
}

// OnRecordUpdated handles an externally pushed record-updated event: patch
// the resident caches with the pushed record, then run the same sequential
// refetch protocol as a local save. This is how concurrent edits by other
// actors converge into this client's view.
func (c *Coordinator) OnRecordUpdated(rec service.TaxRecordResponse) <-chan struct{} {
	c.store.patchRecord(rec)
	return c.reconcileAsync(rec.Key())
}

// Refresh invalidates and refetches every group matching key.
func (c *Coordinator) Refresh(key model.RecordKey) <-chan struct{} {
	return c.reconcileAsync(key)
}

func (c *Coordinator) reconcileAsync(key model.RecordKey) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.reconcile(c.baseCtx, key)
	}()
	return done
}

// reconcile refetches detail, then list groups, then summary groups, one at
// a time with the documented inter-group delay. Sequential per record key:
// two reconciliations for the same record never interleave.
func (c *Coordinator) reconcile(ctx context.Context, key model.RecordKey) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	c.store.invalidateDetail(key)
	c.sleep(ctx, c.settleDelay)

	if rec, err := c.fetchRecordWithRetry(ctx, key); err == nil {
		c.store.setDetail(rec)
	}

	for _, group := range c.lists {
		if !group.matches(key) {
			continue
		}
		c.sleep(ctx, c.interGroupDelay)
		entry, err := c.fetchListWithRetry(ctx, group)
		if err != nil {
			continue
		}
		c.store.setList(group.ID, entry)
	}

	for _, group := range c.summaries {
		if !group.matches(key) {
			continue
		}
		c.sleep(ctx, c.interGroupDelay)
		sum, err := c.fetchSummaryWithRetry(ctx, group)
		if err != nil {
			continue
		}
		c.store.setSummary(group.ID, sum)
	}
}

func (c *Coordinator) fetchRecordWithRetry(ctx context.Context, key model.RecordKey) (service.TaxRecordResponse, error) {
	var rec service.TaxRecordResponse
	err := c.withRetry(ctx, "detail "+key.String(), func() error {
		var err error
		rec, err = c.fetcher.FetchRecord(ctx, key)
		return err
	})
	return rec, err
}

func (c *Coordinator) fetchListWithRetry(ctx context.Context, group ListGroupSpec) (ListEntry, error) {
	var entry ListEntry
	err := c.withRetry(ctx, "list "+group.ID, func() error {
		var err error
		entry, err = c.fetcher.FetchList(ctx, group)
		return err
	})
	return entry, err
}

func (c *Coordinator) fetchSummaryWithRetry(ctx context.Context, group SummaryGroupSpec) (service.SummaryResponse, error) {
	var sum service.SummaryResponse
	err := c.withRetry(ctx, "summary "+group.ID, func() error {
		var err error
		sum, err = c.fetcher.FetchSummary(ctx, group)
		return err
	})
	return sum, err
}

// withRetry runs fn, retrying at most once with exponential backoff. A rate
// limit response is never retried: the group is skipped until the next
// explicit trigger.
func (c *Coordinator) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		var rateLimited *apperr.RateLimitError
		if errors.As(err, &rateLimited) {
			log.Printf("syncer: %s rate limited, skipping until next trigger", op)
			return err
		}
		if attempt >= 1 {
			log.Printf("syncer: %s failed after retry: %v", op, err)
			return err
		}
		delay := c.retryBase << attempt
		if delay > c.retryCap {
			delay = c.retryCap
		}
		c.sleep(ctx, delay)
	}
}

func (c *Coordinator) keyLock(key model.RecordKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[key] = lock
	}
	return lock
}

func tabObligation(tab tax.Tab) (model.Obligation, bool) {
	switch tab {
	case tax.TabWHT:
		return model.ObligationWHT, true
	case tax.TabVAT:
		return model.ObligationVAT, true
	default:
		return "", false
	}
}

// reflectsSave decides whether a re-fetched record shows the ambiguous write
// actually committed: the requested status is in place, or the record was
// rewritten after our cached copy.
func reflectsSave(before, after service.TaxRecordResponse, req service.SaveRecordRequest) bool {
	switch req.Tab {
	case tax.TabWHT:
		if req.WHT != nil && req.WHT.Status != "" {
			return after.WHTEffectiveStatus == req.WHT.Status
		}
	case tax.TabVAT:
		if req.VAT != nil && req.VAT.Status != "" {
			return after.VATEffectiveStatus == req.VAT.Status
		}
	}
	return after.UpdatedAt.After(before.UpdatedAt)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
