package filestore_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/filestore"
)

func newLocalStore(t *testing.T) filestore.Store {
	t.Helper()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc-1_loan.txt", strings.NewReader("contents")))

	file, err := store.Open(ctx, "doc-1_loan.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	require.Equal(t, "contents", string(data))

	require.NoError(t, store.Delete(ctx, "doc-1_loan.txt"))
	_, err = store.Open(ctx, "doc-1_loan.txt")
	require.Error(t, err)

	// Deleting a missing key is a no-op.
	require.NoError(t, store.Delete(ctx, "doc-1_loan.txt"))
}

func TestLocalStoreList(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	require.NoError(t, store.Save(ctx, "doc-1_a.txt", strings.NewReader("a")))
	require.NoError(t, store.Save(ctx, "doc-2_b.txt", strings.NewReader("b")))

	keys, err = store.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"doc-1_a.txt", "doc-2_b.txt"}, keys)
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.Error(t, store.Save(ctx, "../escape.txt", strings.NewReader("x")))
	require.Error(t, store.Save(ctx, "a/b.txt", strings.NewReader("x")))
	require.Error(t, store.Save(ctx, "", strings.NewReader("x")))
	_, err := store.Open(ctx, "a\\b.txt")
	require.Error(t, err)
}
