package service

import (
	"context"
	"testing"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDevDirectoryClient() *DirectoryClient {
	return NewDirectoryClient(config.DirectoryConfig{}, config.ModeDevelopment, zap.NewNop())
}

func TestDirectorySearchTermTooShort(t *testing.T) {
	c := newDevDirectoryClient()

	_, err := c.Search(context.Background(), "ro")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Il termine di ricerca deve avere almeno 3 caratteri", ve.Reason)
}

func TestDirectorySearchDevMode(t *testing.T) {
	c := newDevDirectoryClient()
	ctx := context.Background()

	entries, err := c.Search(ctx, "ros")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Rossi", entries[0].Cognome)

	// matricola fragments match too
	entries, err = c.Search(ctx, "8451")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Bianchi", entries[0].Cognome)

	entries, err = c.Search(ctx, "nessuno")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirectoryTestConnectionDevMode(t *testing.T) {
	require.NoError(t, newDevDirectoryClient().TestConnection(context.Background()))
}
