package checkpoint_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/hitl/checkpoint"
	"github.com/tailored-agentic-units/hitl/core/protocol"
)

func suspendedThread(id string) checkpoint.Thread {
	return checkpoint.Thread{
		ID: id,
		Messages: []protocol.Message{
			protocol.NewMessage(protocol.RoleUser, "Search for the weather in Austin"),
			{
				Role: protocol.RoleAssistant,
				ToolCalls: []protocol.ToolCall{{
					ID:        "call_1",
					Name:      "internet_search",
					Arguments: `{"query":"Austin weather"}`,
				}},
			},
		},
		Pending: &protocol.InterruptSignal{
			ID: "int_1",
			Actions: []protocol.PendingAction{{
				Name:        "internet_search",
				Description: "Tool execution pending approval",
				Arguments:   map[string]any{"query": "Austin weather"},
			}},
		},
		PendingCalls: []protocol.ToolCall{{ID: "call_1", Name: "internet_search", Arguments: `{"query":"Austin weather"}`}},
		UpdatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// runStoreContract exercises the behavior every Store backend shares.
func runStoreContract(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.True(t, errors.Is(err, checkpoint.ErrNotFound), "got %v", err)
	})

	t.Run("save empty id", func(t *testing.T) {
		err := store.Save(ctx, checkpoint.Thread{})
		assert.ErrorIs(t, err, checkpoint.ErrEmptyID)
	})

	t.Run("save and load", func(t *testing.T) {
		want := suspendedThread("thread-a")
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx, "thread-a")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Messages, got.Messages)
		assert.Equal(t, want.PendingCalls, got.PendingCalls)
		require.NotNil(t, got.Pending)
		assert.Equal(t, "int_1", got.Pending.ID)
		assert.Equal(t, "Austin weather", got.Pending.Actions[0].Arguments["query"])
		assert.True(t, got.Suspended())
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("overwrite", func(t *testing.T) {
		thread := suspendedThread("thread-b")
		require.NoError(t, store.Save(ctx, thread))

		thread.Pending = nil
		thread.PendingCalls = nil
		thread.Messages = append(thread.Messages, protocol.NewMessage(protocol.RoleAssistant, "done"))
		require.NoError(t, store.Save(ctx, thread))

		got, err := store.Load(ctx, "thread-b")
		require.NoError(t, err)
		assert.False(t, got.Suspended())
		assert.Len(t, got.Messages, 3)
	})

	t.Run("list sorted", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, suspendedThread("thread-c")))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"thread-a", "thread-b", "thread-c"}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "thread-c"))
		require.NoError(t, store.Delete(ctx, "never-existed"))

		_, err := store.Load(ctx, "thread-c")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"thread-a", "thread-b"}, ids)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, checkpoint.NewMemoryStore())
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	thread := suspendedThread("t1")
	require.NoError(t, store.Save(ctx, thread))

	thread.Messages[0].Content = "tampered"
	thread.Pending.Actions[0].Arguments["query"] = "tampered"

	got, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Search for the weather in Austin", got.Messages[0].Content)
	assert.Equal(t, "Austin weather", got.Pending.Actions[0].Arguments["query"])

	got.Messages[0].Content = "again"
	reloaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Search for the weather in Austin", reloaded.Messages[0].Content)
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, checkpoint.NewFileStore(t.TempDir()))
}

func TestFileStore_EscapedIDs(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewFileStore(t.TempDir())

	id := "user/42:thread 1"
	require.NoError(t, store.Save(ctx, checkpoint.Thread{ID: id}))

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestFileStore_ListMissingRoot(t *testing.T) {
	store := checkpoint.NewFileStore(t.TempDir() + "/absent")

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSQLStore(t *testing.T) {
	store, err := checkpoint.OpenSQL(checkpoint.SQLConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runStoreContract(t, store)
}

func TestOpenSQL_Errors(t *testing.T) {
	_, err := checkpoint.OpenSQL(checkpoint.SQLConfig{Driver: "oracle"})
	assert.Error(t, err)

	_, err = checkpoint.OpenSQL(checkpoint.SQLConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestThread_Clone(t *testing.T) {
	original := suspendedThread("t1")
	cloned := original.Clone()

	cloned.Messages[1].ToolCalls[0].Name = "tampered"
	cloned.Pending.Actions[0].Arguments["query"] = "tampered"
	cloned.PendingCalls[0].ID = "tampered"

	assert.Equal(t, "internet_search", original.Messages[1].ToolCalls[0].Name)
	assert.Equal(t, "Austin weather", original.Pending.Actions[0].Arguments["query"])
	assert.Equal(t, "call_1", original.PendingCalls[0].ID)
}
