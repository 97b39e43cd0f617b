package taskstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

func newTask(id string) *a2a.Task {
	return &a2a.Task{
		Kind:      a2a.KindTask,
		ID:        id,
		ContextID: "ctx-1",
		Status:    a2a.NewTaskStatus(a2a.TaskStateWorking, nil),
		History:   []a2a.Message{*a2a.NewTextMessage(a2a.RoleUser, "hi")},
	}
}

func TestInMemory_SaveLoad(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTask("task-1")))
	got, err := store.Load(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.ID)
	assert.Equal(t, a2a.TaskStateWorking, got.Status.State)
	assert.Len(t, got.History, 1)
	assert.Equal(t, 1, store.Len())
}

func TestInMemory_LoadMissing(t *testing.T) {
	store := NewInMemory()
	_, err := store.Load(context.Background(), "nope")

	var notFound *a2a.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.TaskID)
}

func TestInMemory_CopiesOnSaveAndLoad(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	task := newTask("task-2")
	require.NoError(t, store.Save(ctx, task))
	task.Status.State = a2a.TaskStateFailed

	loaded, err := store.Load(ctx, "task-2")
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateWorking, loaded.Status.State)

	loaded.History = nil
	again, err := store.Load(ctx, "task-2")
	require.NoError(t, err)
	assert.Len(t, again.History, 1)
}

func TestInMemory_SaveRejectsMissingID(t *testing.T) {
	store := NewInMemory()
	assert.Error(t, store.Save(context.Background(), nil))
	assert.Error(t, store.Save(context.Background(), &a2a.Task{}))
}
