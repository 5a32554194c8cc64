package handlers

import (
	"net/http"
	"time"

	"notespace-backend/pkg/config"
	"notespace-backend/pkg/database"
	"notespace-backend/pkg/utils"
)

type HealthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

func NewHealthHandler(cfg *config.Config, db database.DatabaseInterface) *HealthHandler {
	return &HealthHandler{config: cfg, db: db}
}

// GET /
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"status":      status,
		"database":    dbStatus,
		"environment": h.config.Environment,
		"time":        time.Now().Format(time.RFC3339),
	})
}
