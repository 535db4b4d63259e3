package service

import (
	"context"
	"testing"
	"time"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/repository"
	"caserma-alloggi/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveIdentityDevelopment(t *testing.T) {
	cfg := config.AuthConfig{Mode: config.ModeDevelopment, DevUsername: "test.user", Domain: "GDFNET"}
	svc := NewAuthService(cfg, repository.NewMemoryStore(), store.NewMemoryKV(), zap.NewNop())

	id := svc.ResolveIdentity("")
	assert.True(t, id.Authenticated)
	assert.Equal(t, "test.user", id.Username)
	assert.Equal(t, "GDFNET", id.Domain)

	// the forwarded header is ignored in development
	id = svc.ResolveIdentity(`GDFNET\altro.utente`)
	assert.Equal(t, "test.user", id.Username)
}

func TestResolveIdentityProduction(t *testing.T) {
	cfg := config.AuthConfig{Mode: config.ModeProduction, Domain: "GDFNET"}
	svc := NewAuthService(cfg, repository.NewMemoryStore(), store.NewMemoryKV(), zap.NewNop())

	id := svc.ResolveIdentity(`GDFNET\mario.rossi`)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "mario.rossi", id.Username)

	id = svc.ResolveIdentity("mario.rossi")
	assert.True(t, id.Authenticated)
	assert.Equal(t, "mario.rossi", id.Username)

	id = svc.ResolveIdentity("")
	assert.False(t, id.Authenticated)
	assert.Empty(t, id.Username)
}

func TestMatricolaVarianti(t *testing.T) {
	assert.Equal(t, []string{"J972537", "972537J"}, matricolaVarianti("J972537"))
	assert.Equal(t, []string{"972537J", "J972537"}, matricolaVarianti("972537j"))
	// no letter, no rotation
	assert.Equal(t, []string{"972537"}, matricolaVarianti("972537"))
	// letters at both ends stay as-is
	assert.Equal(t, []string{"MARIO.ROSSI"}, matricolaVarianti("mario.rossi"))
	assert.Nil(t, matricolaVarianti("  "))
}

func TestIsAdmin(t *testing.T) {
	mem := repository.NewMemoryStore()
	mem.SetAdmin("972537J", true)

	cfg := config.AuthConfig{Mode: config.ModeProduction, AdminTTL: time.Minute}
	svc := NewAuthService(cfg, mem, store.NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	// the allow-list entry matches through the rotated spelling
	admin, err := svc.IsAdmin(ctx, "J972537")
	require.NoError(t, err)
	assert.True(t, admin)

	admin, err = svc.IsAdmin(ctx, "888888K")
	require.NoError(t, err)
	assert.False(t, admin)

	admin, err = svc.IsAdmin(ctx, "")
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestIsAdminCached(t *testing.T) {
	mem := repository.NewMemoryStore()
	mem.SetAdmin("972537J", true)

	cfg := config.AuthConfig{Mode: config.ModeProduction, AdminTTL: time.Minute}
	svc := NewAuthService(cfg, mem, store.NewMemoryKV(), zap.NewNop())
	ctx := context.Background()

	admin, err := svc.IsAdmin(ctx, "972537J")
	require.NoError(t, err)
	require.True(t, admin)

	// revoking after the first lookup does not change the cached answer
	mem.SetAdmin("972537J", false)
	admin, err = svc.IsAdmin(ctx, "972537J")
	require.NoError(t, err)
	assert.True(t, admin)
}
