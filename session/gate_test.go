package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

func newTestGate(t *testing.T) Gate {
	t.Helper()
	return NewGate(zap.NewNop())
}

func TestGateStartsAnonymous(t *testing.T) {
	g := newTestGate(t)

	assert.False(t, g.HasCredential())
	assert.Nil(t, g.Credential())
	assert.Empty(t, g.Token())
	assert.Equal(t, enum.SessionStateAnonymous, g.State())
}

func TestSetAndClearCredential(t *testing.T) {
	g := newTestGate(t)

	g.Set(models.NewCredential("token-1", &models.UserProfile{Email: "a@b.c"}))
	require.True(t, g.HasCredential())
	assert.Equal(t, "token-1", g.Token())
	assert.Equal(t, enum.SessionStateAuthenticated, g.State())

	g.Clear()
	assert.False(t, g.HasCredential())
	assert.Empty(t, g.Token())
}

func TestEmptyTokenCountsAsAbsent(t *testing.T) {
	g := newTestGate(t)
	g.Set(models.NewCredential("", nil))
	assert.False(t, g.HasCredential())
}

func TestEpochAdvancesOnEveryChange(t *testing.T) {
	g := newTestGate(t)
	start := g.Epoch()

	g.Set(models.NewCredential("token-1", nil))
	g.Clear()
	g.Clear()

	assert.Equal(t, start+3, g.Epoch())
}

func TestOnChangeNotifiesListeners(t *testing.T) {
	g := newTestGate(t)

	var seen []*models.Credential
	unsubscribe := g.OnChange(func(c *models.Credential) {
		seen = append(seen, c)
	})

	credential := models.NewCredential("token-1", nil)
	g.Set(credential)
	g.Clear()

	require.Len(t, seen, 2)
	assert.Same(t, credential, seen[0])
	assert.Nil(t, seen[1])

	unsubscribe()
	g.Set(models.NewCredential("token-2", nil))
	assert.Len(t, seen, 2)
}

func TestListenerObservesNewStateAtCallbackTime(t *testing.T) {
	g := newTestGate(t)

	var hadCredential bool
	g.OnChange(func(c *models.Credential) {
		hadCredential = g.HasCredential()
	})

	g.Set(models.NewCredential("token-1", nil))
	assert.True(t, hadCredential)
}
