package api

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/TWRT/tasks-api/internal/api/handlers"
)

// Database is what the router needs from the storage layer.
// *repository.Pool satisfies it.
type Database interface {
	handlers.StoreProvider
	handlers.Pinger
}

func SetupRouter(db Database, logger *log.Logger, maxBodyBytes int64) http.Handler {
	mux := http.NewServeMux()

	taskHandler := handlers.NewTaskHandler(db, logger)
	healthHandler := handlers.NewHealthHandler(db, logger)

	mux.HandleFunc("POST /v1/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /v1/tasks", taskHandler.ListTasks)
	mux.HandleFunc("POST /v1/tasks/bulk", taskHandler.BulkCreateTasks)
	mux.HandleFunc("DELETE /v1/tasks/bulk", taskHandler.BulkDeleteTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PUT /v1/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", taskHandler.DeleteTask)

	mux.HandleFunc("GET /healthz", healthHandler.Health)

	var handler http.Handler = mux
	handler = limitBody(maxBodyBytes, handler)
	handler = handlers.AccessLog(logger, handler)
	handler = handlers.WithRequestID(handler)
	return handler
}

func limitBody(n int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}
