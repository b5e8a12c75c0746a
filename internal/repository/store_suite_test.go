package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/TWRT/tasks-api/internal/models"
)

// runStoreSuite exercises the TaskStore contract. newStore must return a
// store over an empty tasks table on every call.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) TaskStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateThenGet", func(t *testing.T) {
		store := newStore(t)

		inputs := []models.TaskInput{
			{Title: "buy milk"},
			{Title: "walk the dog", IsCompleted: true},
			{Title: ""},
		}
		for _, in := range inputs {
			created, err := store.Create(ctx, in)
			if err != nil {
				t.Fatalf("Create(%+v) failed: %v", in, err)
			}
			if created.Id == 0 {
				t.Errorf("Create(%+v) returned zero id", in)
			}
			got, err := store.Get(ctx, created.Id)
			if err != nil {
				t.Fatalf("Get(%d) failed: %v", created.Id, err)
			}
			want := models.Task{Id: created.Id, Title: in.Title, IsCompleted: in.IsCompleted}
			if got != want {
				t.Errorf("Get(%d): got %+v, want %+v", created.Id, got, want)
			}
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(ctx, 4242)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("Get missing: got %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		store := newStore(t)

		tasks, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if tasks == nil {
			t.Error("List on empty table returned nil slice")
		}
		if len(tasks) != 0 {
			t.Errorf("List: got %d tasks, want 0", len(tasks))
		}
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		store := newStore(t)

		for _, title := range []string{"c", "a", "b"} {
			if _, err := store.Create(ctx, models.TaskInput{Title: title}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		tasks, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("List: got %d tasks, want 3", len(tasks))
		}
		for i := 1; i < len(tasks); i++ {
			if tasks[i-1].Id >= tasks[i].Id {
				t.Errorf("List not ascending at %d: %d >= %d", i, tasks[i-1].Id, tasks[i].Id)
			}
		}
		if tasks[0].Title != "c" {
			t.Errorf("first task: got %q, want %q", tasks[0].Title, "c")
		}
	})

	t.Run("UpdateReplacesFields", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, models.TaskInput{Title: "draft", IsCompleted: true})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if err := store.Update(ctx, created.Id, models.TaskInput{Title: "final"}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := store.Get(ctx, created.Id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		want := models.Task{Id: created.Id, Title: "final", IsCompleted: false}
		if got != want {
			t.Errorf("after Update: got %+v, want %+v", got, want)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		store := newStore(t)

		err := store.Update(ctx, 99, models.TaskInput{Title: "ghost"})
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("Update missing: got %v, want ErrTaskNotFound", err)
		}

		tasks, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("Update missing created rows: %+v", tasks)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, models.TaskInput{Title: "temp"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := store.Delete(ctx, created.Id); err != nil {
				t.Fatalf("Delete #%d failed: %v", i+1, err)
			}
		}

		if _, err := store.Get(ctx, created.Id); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("Get after Delete: got %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("BulkCreate", func(t *testing.T) {
		store := newStore(t)

		inputs := []models.TaskInput{
			{Title: "a"},
			{Title: "b", IsCompleted: true},
			{Title: "a"},
		}
		ids, err := store.BulkCreate(ctx, inputs)
		if err != nil {
			t.Fatalf("BulkCreate failed: %v", err)
		}
		if len(ids) != len(inputs) {
			t.Fatalf("BulkCreate: got %d ids, want %d", len(ids), len(inputs))
		}

		seen := make(map[int64]bool)
		for i, id := range ids {
			if seen[id] {
				t.Errorf("duplicate id %d", id)
			}
			seen[id] = true

			got, err := store.Get(ctx, id)
			if err != nil {
				t.Fatalf("Get(%d) failed: %v", id, err)
			}
			if got.Title != inputs[i].Title || got.IsCompleted != inputs[i].IsCompleted {
				t.Errorf("task %d: got %+v, want %+v", id, got, inputs[i])
			}
		}
	})

	t.Run("BulkCreateEmpty", func(t *testing.T) {
		store := newStore(t)

		ids, err := store.BulkCreate(ctx, nil)
		if err != nil {
			t.Fatalf("BulkCreate(nil) failed: %v", err)
		}
		if ids == nil || len(ids) != 0 {
			t.Errorf("BulkCreate(nil): got %v, want empty slice", ids)
		}
	})

	t.Run("BulkDeleteMixedIDs", func(t *testing.T) {
		store := newStore(t)

		ids, err := store.BulkCreate(ctx, []models.TaskInput{{Title: "keep"}, {Title: "drop1"}, {Title: "drop2"}})
		if err != nil {
			t.Fatalf("BulkCreate failed: %v", err)
		}

		if err := store.BulkDelete(ctx, []int64{ids[1], ids[2], ids[2], 9999}); err != nil {
			t.Fatalf("BulkDelete failed: %v", err)
		}

		tasks, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Id != ids[0] {
			t.Errorf("after BulkDelete: got %+v, want only id %d", tasks, ids[0])
		}
	})

	t.Run("BulkDeleteEmpty", func(t *testing.T) {
		store := newStore(t)

		if err := store.BulkDelete(ctx, []int64{}); err != nil {
			t.Errorf("BulkDelete(empty) failed: %v", err)
		}
	})

	t.Run("BulkDeleteAcrossChunks", func(t *testing.T) {
		store := newStore(t)

		inputs := make([]models.TaskInput, bulkDeleteChunk*2+7)
		for i := range inputs {
			inputs[i] = models.TaskInput{Title: "bulk"}
		}
		ids, err := store.BulkCreate(ctx, inputs)
		if err != nil {
			t.Fatalf("BulkCreate failed: %v", err)
		}

		if err := store.BulkDelete(ctx, ids); err != nil {
			t.Fatalf("BulkDelete failed: %v", err)
		}

		tasks, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("after BulkDelete: %d tasks remain", len(tasks))
		}
	})
}
