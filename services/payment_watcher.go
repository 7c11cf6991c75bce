package services

import (
	"context"
	"sync"
	"time"

	"storefront-service/models"
	"storefront-service/providers"
	"storefront-service/repository"

	"go.uber.org/zap"
)

// Watcher states for a payment session.
const (
	WatcherIdle      = "IDLE"
	WatcherAwaiting  = "AWAITING"
	WatcherExpired   = "EXPIRED"
	WatcherConfirmed = "CONFIRMED"
)

// confirmedStatuses are the gateway statuses that settle a payment.
var confirmedStatuses = map[string]bool{
	models.StatusPaid:     true,
	models.StatusApproved: true,
}

// WatcherConfig tunes the per-session payment watcher.
type WatcherConfig struct {
	Window             time.Duration
	PollInterval       time.Duration
	CountdownInterval  time.Duration
	ClearCartOnPayment bool
}

// WatcherManager runs one watcher goroutine per session with a pending
// PIX payment. A watcher polls the gateway for the transaction status and
// counts down the payment window; whichever fires first wins, exactly
// once. Generation counters make sure a watcher that was replaced or
// cancelled can never apply a late transition.
type WatcherManager struct {
	sessions  repository.SessionRepository
	carts     repository.CartRepository
	gateway   providers.PaymentGateway
	analytics providers.AnalyticsForwarder
	cfg       WatcherConfig
	logger    *zap.Logger

	mu       sync.Mutex
	watchers map[string]*paymentWatcher
	gens     map[string]uint64

	nowFn func() time.Time
}

func NewWatcherManager(
	sessions repository.SessionRepository,
	carts repository.CartRepository,
	gateway providers.PaymentGateway,
	analytics providers.AnalyticsForwarder,
	cfg WatcherConfig,
	logger *zap.Logger,
) *WatcherManager {
	return &WatcherManager{
		sessions:  sessions,
		carts:     carts,
		gateway:   gateway,
		analytics: analytics,
		cfg:       cfg,
		logger:    logger,
		watchers:  make(map[string]*paymentWatcher),
		gens:      make(map[string]uint64),
		nowFn:     time.Now,
	}
}

// Begin starts watching the given payment session, replacing any watcher
// already attached to the session id. The replaced watcher's generation
// is retired before the new one starts, so a transition it has in flight
// is discarded.
func (m *WatcherManager) Begin(sessionID string, session *models.PaymentSession) {
	m.mu.Lock()
	old := m.watchers[sessionID]
	m.gens[sessionID]++
	gen := m.gens[sessionID]

	ctx, cancel := context.WithCancel(context.Background())
	w := &paymentWatcher{
		mgr:       m,
		sessionID: sessionID,
		session:   session,
		gen:       gen,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     WatcherAwaiting,
	}
	m.watchers[sessionID] = w
	m.mu.Unlock()

	if old != nil {
		old.cancel()
	}

	go w.run(ctx)
}

// Ensure re-attaches a watcher after a restart or reconnect: if one is
// already running for the same order it is left alone, otherwise a new
// one starts from the persisted session.
func (m *WatcherManager) Ensure(sessionID string, session *models.PaymentSession) {
	m.mu.Lock()
	w := m.watchers[sessionID]
	m.mu.Unlock()

	if w != nil && w.session.ExternalID == session.ExternalID {
		return
	}
	m.Begin(sessionID, session)
}

// Cancel stops the session's watcher without touching stored state.
func (m *WatcherManager) Cancel(sessionID string) {
	m.mu.Lock()
	w := m.watchers[sessionID]
	if w != nil {
		delete(m.watchers, sessionID)
		m.gens[sessionID]++
	}
	m.mu.Unlock()

	if w != nil {
		w.cancel()
	}
}

// Snapshot reports the watcher's current state and remaining window for
// the session. ok is false when no watcher is attached.
func (m *WatcherManager) Snapshot(sessionID string) (state string, remaining time.Duration, ok bool) {
	m.mu.Lock()
	w := m.watchers[sessionID]
	m.mu.Unlock()

	if w == nil {
		return WatcherIdle, 0, false
	}
	return w.snapshot()
}

// Stop cancels every watcher and waits for them to drain. Used on
// shutdown.
func (m *WatcherManager) Stop() {
	m.mu.Lock()
	all := make([]*paymentWatcher, 0, len(m.watchers))
	for id, w := range m.watchers {
		all = append(all, w)
		delete(m.watchers, id)
		m.gens[id]++
	}
	m.mu.Unlock()

	for _, w := range all {
		w.cancel()
	}
	for _, w := range all {
		<-w.done
	}
}

// isCurrent reports whether the generation still owns the session slot.
func (m *WatcherManager) isCurrent(sessionID string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[sessionID] == gen
}

func (m *WatcherManager) detach(sessionID string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.watchers[sessionID]; w != nil && w.gen == gen {
		delete(m.watchers, sessionID)
	}
}

// paymentWatcher is the per-session poll + countdown loop.
type paymentWatcher struct {
	mgr       *WatcherManager
	sessionID string
	session   *models.PaymentSession
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	state     string
	expiresAt time.Time
}

func (w *paymentWatcher) run(ctx context.Context) {
	defer close(w.done)

	w.resolveExpiry(ctx)

	// Fire both checks immediately so a reload of an already-expired or
	// already-paid session settles without waiting a full tick.
	if w.tickCountdown(ctx) {
		return
	}
	if w.checkStatus(ctx) {
		return
	}

	countdown := time.NewTicker(w.mgr.cfg.CountdownInterval)
	defer countdown.Stop()
	poll := time.NewTicker(w.mgr.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-countdown.C:
			if w.tickCountdown(ctx) {
				return
			}
		case <-poll.C:
			if w.checkStatus(ctx) {
				return
			}
		}
	}
}

// resolveExpiry pins down the countdown deadline, in priority order: the
// session's own expiry, then the persisted per-order deadline (survives
// watcher restarts), then a fresh window synthesized and persisted now.
func (w *paymentWatcher) resolveExpiry(ctx context.Context) {
	if !w.session.ExpiresAt.IsZero() {
		w.setExpiry(w.session.ExpiresAt)
		return
	}

	if stored, ok, err := w.mgr.sessions.GetOrderExpiry(ctx, w.session.ExternalID); err == nil && ok {
		w.setExpiry(stored)
		return
	}

	deadline := w.mgr.nowFn().Add(w.mgr.cfg.Window)
	if err := w.mgr.sessions.SaveOrderExpiry(ctx, w.session.ExternalID, deadline); err != nil {
		w.mgr.logger.Warn("failed to persist order expiry",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}
	w.setExpiry(deadline)
}

func (w *paymentWatcher) setExpiry(t time.Time) {
	w.mu.Lock()
	w.expiresAt = t
	w.mu.Unlock()
}

func (w *paymentWatcher) snapshot() (string, time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	remaining := time.Duration(0)
	if w.state == WatcherAwaiting {
		remaining = time.Until(w.expiresAt)
		if remaining < 0 {
			remaining = 0
		}
	}
	return w.state, remaining, true
}

// tickCountdown checks the deadline. Returns true when the watcher is
// finished.
func (w *paymentWatcher) tickCountdown(ctx context.Context) bool {
	w.mu.Lock()
	if w.state != WatcherAwaiting {
		w.mu.Unlock()
		return true
	}
	expired := !w.expiresAt.After(w.mgr.nowFn())
	w.mu.Unlock()

	if expired {
		return w.transitionExpired(ctx)
	}
	return false
}

// checkStatus polls the gateway once. A poll failure is logged and the
// loop keeps going; only a confirmed status ends it.
func (w *paymentWatcher) checkStatus(ctx context.Context) bool {
	w.mu.Lock()
	if w.state != WatcherAwaiting {
		w.mu.Unlock()
		return true
	}
	w.mu.Unlock()

	status, err := w.mgr.gateway.TransactionStatus(ctx, w.session.ExternalID)
	if err != nil {
		w.mgr.logger.Debug("status poll failed",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
		return false
	}

	if confirmedStatuses[status] {
		return w.transitionConfirmed(ctx)
	}
	return false
}

// claim flips the watcher into a terminal state exactly once, and only
// if this generation still owns the session slot.
func (w *paymentWatcher) claim(next string) bool {
	w.mu.Lock()
	if w.state != WatcherAwaiting {
		w.mu.Unlock()
		return false
	}
	w.state = next
	w.mu.Unlock()

	if !w.mgr.isCurrent(w.sessionID, w.gen) {
		return false
	}
	return true
}

// sessionStillMine re-reads the stored slot and checks it still refers
// to this watcher's order. A newer payment overwriting the slot means
// this watcher's outcome is stale and must not touch anything.
func (w *paymentWatcher) sessionStillMine(ctx context.Context) bool {
	stored, err := w.mgr.sessions.LoadSession(ctx, w.sessionID)
	if err != nil {
		w.mgr.logger.Warn("failed to verify payment session",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
		return false
	}
	return stored != nil && stored.ExternalID == w.session.ExternalID
}

func (w *paymentWatcher) transitionExpired(ctx context.Context) bool {
	if !w.claim(WatcherExpired) {
		return true
	}
	if !w.sessionStillMine(ctx) {
		w.mgr.detach(w.sessionID, w.gen)
		return true
	}

	if err := w.mgr.sessions.DeleteOrderExpiry(ctx, w.session.ExternalID); err != nil {
		w.mgr.logger.Warn("failed to delete order expiry",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}
	if err := w.mgr.sessions.ClearSession(ctx, w.sessionID); err != nil {
		w.mgr.logger.Warn("failed to clear payment session",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}
	if err := w.mgr.sessions.DeleteOrderAnalytics(ctx, w.session.ExternalID); err != nil {
		w.mgr.logger.Warn("failed to delete staged analytics",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}

	w.mgr.logger.Info("payment expired", zap.String("order_id", w.session.ExternalID))
	return true
}

func (w *paymentWatcher) transitionConfirmed(ctx context.Context) bool {
	if !w.claim(WatcherConfirmed) {
		return true
	}
	if !w.sessionStillMine(ctx) {
		w.mgr.detach(w.sessionID, w.gen)
		return true
	}

	if err := w.mgr.sessions.DeleteOrderExpiry(ctx, w.session.ExternalID); err != nil {
		w.mgr.logger.Warn("failed to delete order expiry",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}
	if err := w.mgr.sessions.ClearSession(ctx, w.sessionID); err != nil {
		w.mgr.logger.Warn("failed to clear payment session",
			zap.String("order_id", w.session.ExternalID), zap.Error(err))
	}
	if w.mgr.cfg.ClearCartOnPayment {
		if err := w.mgr.carts.DeleteCart(ctx, w.sessionID); err != nil {
			w.mgr.logger.Warn("failed to clear cart",
				zap.String("order_id", w.session.ExternalID), zap.Error(err))
		}
	}

	w.forwardApproved()

	w.mgr.logger.Info("payment confirmed", zap.String("order_id", w.session.ExternalID))
	return true
}

// forwardApproved resends the staged analytics payload as paid, best
// effort, then drops the staged copy.
func (w *paymentWatcher) forwardApproved() {
	if !w.mgr.analytics.Enabled() {
		return
	}

	orderID := w.session.ExternalID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		order, err := w.mgr.sessions.LoadOrderAnalytics(ctx, orderID)
		if err != nil || order == nil {
			if err != nil {
				w.mgr.logger.Warn("failed to load staged analytics",
					zap.String("order_id", orderID), zap.Error(err))
			}
			return
		}

		approved := providers.FormatUtmifyDate(w.mgr.nowFn())
		order.Status = "paid"
		order.ApprovedDate = &approved

		if err := w.mgr.analytics.SendOrder(ctx, *order); err != nil {
			w.mgr.logger.Warn("analytics forward failed",
				zap.String("order_id", orderID), zap.Error(err))
			return
		}
		if err := w.mgr.sessions.DeleteOrderAnalytics(ctx, orderID); err != nil {
			w.mgr.logger.Warn("failed to delete staged analytics",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}()
}
