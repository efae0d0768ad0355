package handlers

import (
	"net/http"
	"strconv"

	"fnh-backend/internal/models"
	"fnh-backend/internal/services"
	"fnh-backend/pkg/utils"
)

type AuditLogHandler struct {
	Audit *services.AuditService
}

func NewAuditLogHandler(audit *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{Audit: audit}
}

// List returns the audit trail, newest first. Admin only.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actionType := q.Get("action_type")
	targetType := q.Get("target_type")
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	logs, err := h.Audit.List(r.Context(), actionType, targetType, limit, offset)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}
