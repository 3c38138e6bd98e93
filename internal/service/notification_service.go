package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fundingarb/internal/models"
	"fundingarb/internal/repository"
)

// WebSocketBroadcaster - интерфейс для отправки WebSocket сообщений
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketBroadcaster interface {
	BroadcastNotification(notif *models.Notification)
}

// NotificationStore - персистентное хранилище уведомлений
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetRecent(ctx context.Context, limit int) ([]*models.Notification, error)
	DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error)
}

// persistTimeout ограничивает запись уведомления в БД,
// чтобы не задерживать цикл мониторинга
const persistTimeout = 5 * time.Second

// NotificationService принимает уведомления от мониторов,
// сохраняет их в БД и рассылает подключенным WebSocket клиентам.
//
// Реализует monitor.NotificationSink. Канал уведомлений best-effort:
// ошибки записи и рассылки логируются, но никогда не возвращаются
// вызывающему - мониторинг не должен останавливаться из-за
// недоступности журнала.
type NotificationService struct {
	store  NotificationStore
	wsHub  WebSocketBroadcaster
	logger *zap.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(store NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast уведомлений.
//
// Вызывается после инициализации Hub в main.go:
//
//	notifService := service.NewNotificationService(notifRepo, logger)
//	notifService.SetWebSocketHub(wsHub)
func (s *NotificationService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// Notify сохраняет уведомление и рассылает его клиентам.
//
// Вызывается из циклов мониторинга, поэтому не блокируется надолго
// и не возвращает ошибок: сбой записи в БД не отменяет broadcast,
// событие всё равно дойдёт до UI.
func (s *NotificationService) Notify(notif *models.Notification) {
	if notif == nil {
		return
	}
	if notif.Timestamp.IsZero() {
		notif.Timestamp = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.store.Create(ctx, notif); err != nil {
		s.logger.Error("не удалось сохранить уведомление",
			zap.String("type", notif.Type),
			zap.String("message", notif.Message),
			zap.Error(err))
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastNotification(notif)
	}
}

// GetNotifications возвращает последние уведомления (новые сверху).
//
// limit <= 0 заменяется дефолтом 100, верхняя граница 500.
func (s *NotificationService) GetNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return s.store.GetRecent(ctx, limit)
}

// CleanupOld удаляет уведомления старше retention.
//
// Вызывается периодически из main.go для ограничения размера журнала.
func (s *NotificationService) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-retention)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("журнал уведомлений очищен",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// интерфейсная проверка: *repository.NotificationRepository подходит как хранилище
var _ NotificationStore = (*repository.NotificationRepository)(nil)
