package handlers

import (
	"context"
	"net/http"
	"strconv"

	"fundingarb/internal/models"
)

// NotificationProvider - источник журнала уведомлений.
// Реализуется service.NotificationService.
type NotificationProvider interface {
	GetNotifications(ctx context.Context, limit int) ([]*models.Notification, error)
}

// NotificationHandler отвечает за журнал уведомлений
//
// Endpoints:
// - GET /api/v1/notifications - последние уведомления (новые сверху)
// - GET /api/v1/notifications?limit=50 - с ограничением количества
type NotificationHandler struct {
	notifications NotificationProvider
}

// NewNotificationHandler создает новый NotificationHandler
func NewNotificationHandler(notifications NotificationProvider) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetNotificationsResponse представляет ответ списка уведомлений
type GetNotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
}

// GetNotifications возвращает последние уведомления
//
// GET /api/v1/notifications
//
// Query параметры:
// - limit (int): количество записей (по умолчанию 100, максимум 500)
//
// HTTP коды:
// - 200 OK: массив уведомлений
// - 500 Internal Server Error: ошибка БД
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.notifications.GetNotifications(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to get notifications: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, GetNotificationsResponse{
		Notifications: notifications,
		Total:         len(notifications),
	})
}
