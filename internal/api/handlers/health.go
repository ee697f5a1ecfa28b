package handlers

import (
	"net/http"
	"time"

	"github.com/dom/task-manager/internal/httpx"
)

func Root(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": "Task Manager API is running!",
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
