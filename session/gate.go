// Package session tracks whether a valid credential exists and notifies
// subscribers when it changes. It issues no network calls of its own; the
// cart engine consults it before every remote operation.
package session

import (
	"sync"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

var _ Gate = (*gate)(nil)

// Gate is the credential capability consumed by the cart engine: read the
// current credential, and react to it being set or cleared.
type Gate interface {
	HasCredential() bool
	Credential() *models.Credential
	Token() string
	State() enum.SessionState

	// Epoch increments on every Set or Clear. In-flight work records the
	// epoch before a remote call and re-checks it before applying the
	// response, so a stale response can never repopulate state that was
	// invalidated while it was in flight.
	Epoch() uint64

	Set(credential *models.Credential)
	Clear()

	// OnChange registers a listener invoked after every credential change
	// with the new credential (nil on clear). The returned func removes the
	// listener.
	OnChange(listener func(*models.Credential)) (unsubscribe func())
}

type gate struct {
	mu         sync.RWMutex
	credential *models.Credential
	epoch      uint64
	listeners  map[uint64]func(*models.Credential)
	nextID     uint64
	logger     *zap.Logger
}

func NewGate(logger *zap.Logger) Gate {
	return &gate{
		listeners: make(map[uint64]func(*models.Credential)),
		logger:    logger,
	}
}

func (g *gate) HasCredential() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.credential != nil && g.credential.Token != ""
}

func (g *gate) Credential() *models.Credential {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.credential
}

func (g *gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.credential == nil {
		return ""
	}
	return g.credential.Token
}

func (g *gate) State() enum.SessionState {
	if g.HasCredential() {
		return enum.SessionStateAuthenticated
	}
	return enum.SessionStateAnonymous
}

func (g *gate) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

func (g *gate) Set(credential *models.Credential) {
	g.mu.Lock()
	g.credential = credential
	g.epoch++
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	g.logger.Info("Credential set", zap.Uint64("epoch", g.Epoch()))
	for _, fn := range listeners {
		fn(credential)
	}
}

func (g *gate) Clear() {
	g.mu.Lock()
	cleared := g.credential != nil
	g.credential = nil
	g.epoch++
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	if cleared {
		g.logger.Info("Credential cleared", zap.Uint64("epoch", g.Epoch()))
	}
	for _, fn := range listeners {
		fn(nil)
	}
}

func (g *gate) OnChange(listener func(*models.Credential)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = listener
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// snapshotListeners copies the listener set so callbacks run outside the
// lock. Callers must hold mu.
func (g *gate) snapshotListeners() []func(*models.Credential) {
	out := make([]func(*models.Credential), 0, len(g.listeners))
	for _, fn := range g.listeners {
		out = append(out, fn)
	}
	return out
}
