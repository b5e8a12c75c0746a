package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/TWRT/tasks-api/internal/repository"
	"github.com/TWRT/tasks-api/internal/schema"
)

// StoreProvider hands out a task store scoped to one request. release must
// be called exactly once when the request is done with the store.
type StoreProvider interface {
	Acquire(ctx context.Context) (store repository.TaskStore, release func(), err error)
}

type TaskHandler struct {
	stores StoreProvider
	logger *log.Logger
}

func NewTaskHandler(stores StoreProvider, logger *log.Logger) *TaskHandler {
	return &TaskHandler{
		stores: stores,
		logger: logger,
	}
}

// withStore acquires a store for the request, runs fn and releases the
// store. Callers decode the request first so no connection is held while a
// body is still being read.
func (h *TaskHandler) withStore(w http.ResponseWriter, r *http.Request, fn func(store repository.TaskStore)) {
	store, release, err := h.stores.Acquire(r.Context())
	if err != nil {
		h.serverError(w, r, "Error trying to reach the database", err)
		return
	}
	defer release()

	fn(store)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	input, err := schema.DecodeTask(r.Body)
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		task, err := store.Create(r.Context(), input)
		if err != nil {
			h.serverError(w, r, "Error trying to create the task", err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, func(store repository.TaskStore) {
		tasks, err := store.List(r.Context())
		if err != nil {
			h.serverError(w, r, "Error trying to list tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(r.PathValue("id"))
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		task, err := store.Get(r.Context(), id)
		if errors.Is(err, repository.ErrTaskNotFound) {
			notFound(w)
			return
		}
		if err != nil {
			h.serverError(w, r, "Error trying to get the task", err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(r.PathValue("id"))
	if err != nil {
		h.validationError(w, err)
		return
	}

	input, err := schema.DecodeTask(r.Body)
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		err := store.Update(r.Context(), id, input)
		if errors.Is(err, repository.ErrTaskNotFound) {
			notFound(w)
			return
		}
		if err != nil {
			h.serverError(w, r, "Error trying to update the task", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// DeleteTask answers 204 whether or not the task existed.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(r.PathValue("id"))
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		if err := store.Delete(r.Context(), id); err != nil {
			h.serverError(w, r, "Error trying to delete the task", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *TaskHandler) BulkCreateTasks(w http.ResponseWriter, r *http.Request) {
	inputs, err := schema.DecodeBulkCreate(r.Body)
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		ids, err := store.BulkCreate(r.Context(), inputs)
		if err != nil {
			h.serverError(w, r, "Error trying to create tasks", err)
			return
		}
		writeJSON(w, http.StatusCreated, schema.BulkCreateResponse(ids))
	})
}

func (h *TaskHandler) BulkDeleteTasks(w http.ResponseWriter, r *http.Request) {
	ids, err := schema.DecodeBulkDelete(r.Body)
	if err != nil {
		h.validationError(w, err)
		return
	}

	h.withStore(w, r, func(store repository.TaskStore) {
		if err := store.BulkDelete(r.Context(), ids); err != nil {
			h.serverError(w, r, "Error trying to delete tasks", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *TaskHandler) validationError(w http.ResponseWriter, err error) {
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		ve = &schema.ValidationError{Message: err.Error()}
	}
	body := map[string]string{"error": ve.Message}
	if ve.Field != "" {
		body["field"] = ve.Field
	}
	writeJSON(w, http.StatusUnprocessableEntity, body)
}

func (h *TaskHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": msg + ": " + err.Error(),
	})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": repository.ErrTaskNotFound.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
