// Package storefront owns the authoritative in-memory cart snapshot and
// keeps it consistent with the remote cart service. Every mutation is
// followed by a reconciling refetch: the server is the only party that knows
// authoritative pricing and stock-adjusted quantities, so the engine never
// trusts a locally synthesized merge.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/checkout"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/session"
)

// Result is what every mutation resolves to. Mutations never raise past
// their own boundary; callers branch on Success and show Error to the user.
type Result struct {
	Success bool
	Error   string
}

func succeed() Result {
	return Result{Success: true}
}

func fail(message string) Result {
	return Result{Error: message}
}

type Service interface {
	// Refresh fetches the remote cart, hydrates missing display fields, and
	// swaps in the new snapshot wholesale. With no credential present it
	// empties the snapshot without issuing any remote call.
	Refresh(ctx context.Context) error

	AddItem(ctx context.Context, productID string, quantity uint64) Result
	UpdateQuantity(ctx context.Context, productID string, quantity int64) Result
	RemoveItem(ctx context.Context, productID string) Result
	Clear(ctx context.Context) Result

	Snapshot() *models.CartSnapshot
	ItemCount() uint64
	Total() float64
	Loading() bool
	LastError() string
	Summary() checkout.Summary

	Close()
}

type service struct {
	cart    cart.Repository
	catalog catalog.Repository
	gate    session.Gate

	checkoutCfg checkout.Config

	// mutationMu serializes mutation cycles (remote call plus reconciling
	// refetch) per engine instance, so back-to-back mutations from different
	// goroutines commit in order.
	mutationMu sync.Mutex

	stateMu   sync.RWMutex
	snapshot  *models.CartSnapshot
	loading   bool
	lastError string

	eventManager *EventManager
	workerPool   *WorkerPool
	ungate       func()

	logger *zap.Logger
}

var _ Service = (*service)(nil)

// NewService wires the cart engine. natsConn may be nil when no session bus
// is configured; out-of-band invalidation is then unavailable but everything
// else works.
func NewService(
	cartRepo cart.Repository, catalogRepo catalog.Repository, gate session.Gate,
	checkoutCfg checkout.Config,
	natsConn *nats.Conn,
	logger *zap.Logger) Service {
	s := &service{
		cart:        cartRepo,
		catalog:     catalogRepo,
		gate:        gate,
		checkoutCfg: checkoutCfg,
		logger:      logger,
	}

	// A cleared credential must never leave stale authenticated data on
	// display.
	s.ungate = gate.OnChange(func(credential *models.Credential) {
		if credential == nil {
			s.replaceSnapshot(nil)
		}
	})

	s.eventManager = NewEventManager(natsConn, logger)
	s.registerEventHandlers()

	if natsConn != nil {
		s.workerPool = NewWorkerPool(4, s, logger)
		if err := s.eventManager.SubscribeToEvents(s.workerPool); err != nil {
			logger.Error("Failed to subscribe to session events", zap.Error(err))
		}
	}

	return s
}

func (s *service) Close() {
	if s.ungate != nil {
		s.ungate()
	}
	if s.workerPool != nil {
		s.workerPool.Shutdown()
	}
}

func (s *service) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setLastError("")

	// 1. 未登入時直接清空快照，不發出任何遠端請求
	if !s.gate.HasCredential() {
		s.replaceSnapshot(nil)
		return nil
	}
	epoch := s.gate.Epoch()

	// 2. 獲取遠端購物車
	snapshot, err := s.cart.GetCart(ctx)
	if err != nil {
		if errors.Is(err, cart.ErrUnauthorized) {
			// An authorization failure is "not logged in", not an error.
			s.replaceSnapshot(nil)
			return nil
		}
		// Keep the prior snapshot so the UI can still show last known good
		// state.
		s.setLastError("Failed to fetch cart")
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	// 3. 並發補齊缺少顯示欄位的項目
	s.hydrate(ctx, snapshot)

	// 4. apply-time 檢查：憑證在請求期間變更時丟棄過期的回應
	if s.gate.Epoch() != epoch {
		s.logger.Info("Discarding cart response fetched under a stale credential")
		if !s.gate.HasCredential() {
			s.replaceSnapshot(nil)
		}
		return nil
	}

	s.replaceSnapshot(snapshot)
	return nil
}

// hydrate fills missing display fields with one catalog lookup per affected
// item, fanned out concurrently and merged back by index. One failed lookup
// degrades only its own item; siblings and the refresh itself proceed.
func (s *service) hydrate(ctx context.Context, snapshot *models.CartSnapshot) {
	var pending []int
	for i := range snapshot.Items {
		if snapshot.Items[i].NeedsHydration() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return
	}

	products := make([]*models.Product, len(snapshot.Items))
	var wg sync.WaitGroup
	for _, idx := range pending {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			product, err := s.catalog.GetProductByID(ctx, snapshot.Items[idx].ProductID)
			if err != nil {
				s.logger.Warn("Failed to hydrate cart item",
					zap.String("product_id", snapshot.Items[idx].ProductID),
					zap.Error(err))
				return
			}
			products[idx] = product
		}(idx)
	}
	wg.Wait()

	for _, idx := range pending {
		snapshot.Items[idx].Merge(products[idx])
	}
}

func (s *service) AddItem(ctx context.Context, productID string, quantity uint64) Result {
	if productID == "" {
		return s.rejectValidation("Product ID is required")
	}
	if quantity == 0 {
		quantity = 1
	}

	s.mutationMu.Lock()
	defer s.mutationMu.Unlock()
	s.setLastError("")

	if err := s.cart.AddItem(ctx, productID, quantity); err != nil {
		return s.failMutation("Failed to add item to cart", err)
	}

	s.refreshAfterMutation(ctx)
	return succeed()
}

func (s *service) UpdateQuantity(ctx context.Context, productID string, quantity int64) Result {
	if productID == "" {
		return s.rejectValidation("Product ID is required")
	}
	// 數量歸零視為移除
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mutationMu.Lock()
	defer s.mutationMu.Unlock()
	s.setLastError("")

	current := s.Snapshot()
	if current == nil {
		return s.rejectValidation("Cart not initialized")
	}

	// 本地計算完整的項目集合，整批替換遠端內容
	updated := make([]models.CartLineItem, len(current.Items))
	copy(updated, current.Items)
	for i := range updated {
		if updated[i].ProductID == productID {
			updated[i].Quantity = uint64(quantity)
		}
	}

	if err := s.cart.ReplaceItems(ctx, updated); err != nil {
		return s.failMutation("Failed to update cart", err)
	}

	s.refreshAfterMutation(ctx)
	return succeed()
}

func (s *service) RemoveItem(ctx context.Context, productID string) Result {
	if productID == "" {
		return s.rejectValidation("Product ID is required")
	}

	s.mutationMu.Lock()
	defer s.mutationMu.Unlock()
	s.setLastError("")

	if err := s.cart.RemoveItem(ctx, productID); err != nil {
		return s.failMutation("Failed to remove item from cart", err)
	}

	s.refreshAfterMutation(ctx)
	return succeed()
}

func (s *service) Clear(ctx context.Context) Result {
	s.mutationMu.Lock()
	defer s.mutationMu.Unlock()
	s.setLastError("")

	if err := s.cart.Clear(ctx); err != nil {
		return s.failMutation("Failed to clear cart", err)
	}

	// The post-state is known; no refetch needed.
	s.replaceSnapshot(nil)
	return succeed()
}

// refreshAfterMutation runs the reconciling refetch. The mutation already
// committed remotely, so a fetch failure here surfaces through LastError
// rather than failing the mutation result.
func (s *service) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("Reconciling refetch after mutation failed", zap.Error(err))
	}
}

func (s *service) rejectValidation(message string) Result {
	s.setLastError(message)
	return fail(message)
}

func (s *service) failMutation(fallback string, err error) Result {
	if errors.Is(err, cart.ErrUnauthorized) {
		// Mirror of the transport behavior on 401: the credential is dead,
		// drop it so the gate tells everyone.
		s.gate.Clear()
		message := "Please log in to manage your cart"
		s.setLastError(message)
		return fail(message)
	}

	message := err.Error()
	if message == "" {
		message = fallback
	}
	s.setLastError(message)
	s.logger.Error(fallback, zap.Error(err))
	return fail(message)
}

func (s *service) Snapshot() *models.CartSnapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.Clone()
}

func (s *service) ItemCount() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.ItemCount()
}

// Total is the sum of price times quantity across the current snapshot,
// counting missing prices as zero. Zero for an absent snapshot.
func (s *service) Total() float64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.Subtotal()
}

func (s *service) Loading() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loading
}

func (s *service) LastError() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastError
}

// Summary recomputes the checkout breakdown from the current snapshot on
// every call.
func (s *service) Summary() checkout.Summary {
	return checkout.ForSnapshot(s.Snapshot(), s.checkoutCfg)
}

func (s *service) replaceSnapshot(snapshot *models.CartSnapshot) {
	s.stateMu.Lock()
	s.snapshot = snapshot
	s.stateMu.Unlock()
}

func (s *service) setLoading(loading bool) {
	s.stateMu.Lock()
	s.loading = loading
	s.stateMu.Unlock()
}

func (s *service) setLastError(message string) {
	s.stateMu.Lock()
	s.lastError = message
	s.stateMu.Unlock()
}

// ProcessSessionEvent reacts to out-of-band credential notifications from
// the session bus.
func (s *service) ProcessSessionEvent(ctx context.Context, event *models.SessionEvent) error {
	handler, exists := s.eventManager.GetHandler(event.Type)
	if !exists {
		s.logger.Debug("No handler for session event", zap.String("type", string(event.Type)))
		return nil
	}
	return handler(ctx, event)
}

func (s *service) registerEventHandlers() {
	eventHandlers := map[enum.SessionEventType]EventHandler{
		enum.SessionEventTypeRevoked:   s.handleSessionRevoked,
		enum.SessionEventTypeRefreshed: s.handleSessionRefreshed,
	}

	for eventType, handler := range eventHandlers {
		s.eventManager.RegisterHandler(eventType, handler)
	}
}

func (s *service) handleSessionRevoked(_ context.Context, event *models.SessionEvent) error {
	s.logger.Info("Handling session revoked event",
		zap.String("event_id", event.ID),
		zap.String("reason", event.Reason))

	// Clearing the gate bumps the epoch, which also fences any refresh that
	// was in flight when the revocation arrived.
	s.gate.Clear()
	return nil
}

func (s *service) handleSessionRefreshed(ctx context.Context, event *models.SessionEvent) error {
	s.logger.Info("Handling session refreshed event", zap.String("event_id", event.ID))
	return s.Refresh(ctx)
}
