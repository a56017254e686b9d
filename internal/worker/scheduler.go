package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/pkg/distlock"
	"github.com/ignite/ads-console/internal/pkg/logger"
	"github.com/ignite/ads-console/internal/storage"
)

// Scheduler enqueues due sync jobs for every active account: hierarchy
// refreshes on a slow cadence, metrics on a fast one. A distributed
// lock keeps only one replica scheduling at a time; the enqueue itself
// also dedupes, so losing the lock race is harmless.
type Scheduler struct {
	store  *storage.Store
	lock   distlock.DistLock // nil when single-replica
	cfg    config.SyncConfig
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(store *storage.Store, lock distlock.DistLock, cfg config.SyncConfig) *Scheduler {
	return &Scheduler{
		store:  store,
		lock:   lock,
		cfg:    cfg,
		logger: log.New(log.Writer(), "[scheduler] ", log.LstdFlags),
		now:    time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Printf("started")
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Printf("stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	interval := time.Duration(s.cfg.SchedulerIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			s.logger.Printf("lock error, skipping tick: %v", err)
			return
		}
		if !ok {
			return
		}
		defer s.lock.Release(ctx)
	}

	accounts, err := s.store.ListActiveAccounts(ctx)
	if err != nil {
		s.logger.Printf("list accounts: %v", err)
		return
	}

	hierarchyEvery := time.Duration(s.cfg.HierarchyRefreshHours) * time.Hour
	if hierarchyEvery <= 0 {
		hierarchyEvery = 6 * time.Hour
	}
	metricsEvery := time.Duration(s.cfg.MetricsRefreshMinutes) * time.Minute
	if metricsEvery <= 0 {
		metricsEvery = time.Hour
	}

	for _, a := range accounts {
		s.scheduleKind(ctx, a, "hierarchy", hierarchyEvery)
		s.scheduleKind(ctx, a, "metrics", metricsEvery)
	}
}

func (s *Scheduler) scheduleKind(ctx context.Context, account storage.Account, kind string, every time.Duration) {
	cid := logger.RedactCustomerID(account.CustomerID)
	last, err := s.store.LastCompletedSync(ctx, account.ID, kind)
	if err != nil {
		s.logger.Printf("account %s: %v", cid, err)
		return
	}
	now := s.now().UTC()
	if last != nil && now.Sub(*last) < every {
		return
	}
	enqueued, err := s.store.EnqueueSyncJob(ctx, account.ID, kind, now)
	if err != nil {
		s.logger.Printf("enqueue %s for %s: %v", kind, cid, err)
		return
	}
	if enqueued {
		s.logger.Printf("enqueued %s sync for account %s", kind, cid)
	}
}
