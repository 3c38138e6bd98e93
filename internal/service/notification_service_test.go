package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"fundingarb/internal/models"
)

// ============ Mocks ============

type mockStore struct {
	created   []*models.Notification
	createErr error

	recent    []*models.Notification
	recentErr error

	deleted   int64
	deleteErr error
	cutoff    time.Time
}

func (m *mockStore) Create(ctx context.Context, n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockStore) GetRecent(ctx context.Context, limit int) ([]*models.Notification, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if limit < len(m.recent) {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func (m *mockStore) DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error) {
	m.cutoff = timestamp
	return m.deleted, m.deleteErr
}

type mockBroadcaster struct {
	broadcasts []*models.Notification
}

func (m *mockBroadcaster) BroadcastNotification(notif *models.Notification) {
	m.broadcasts = append(m.broadcasts, notif)
}

// ============ Tests ============

func TestNotify_PersistsAndBroadcasts(t *testing.T) {
	store := &mockStore{}
	hub := &mockBroadcaster{}
	svc := NewNotificationService(store, zap.NewNop())
	svc.SetWebSocketHub(hub)

	notif := &models.Notification{
		Type:     models.NotificationTypeOpportunity,
		Severity: models.SeverityInfo,
		Symbol:   "BTCUSDT",
		Message:  "спред превысил порог",
	}
	svc.Notify(notif)

	if len(store.created) != 1 {
		t.Fatalf("created = %d, want 1", len(store.created))
	}
	if len(hub.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(hub.broadcasts))
	}
	if store.created[0].Timestamp.IsZero() {
		t.Error("timestamp не проставлен при сохранении")
	}
}

func TestNotify_StoreErrorStillBroadcasts(t *testing.T) {
	// Сбой БД не должен отменять доставку события в UI
	store := &mockStore{createErr: errors.New("db down")}
	hub := &mockBroadcaster{}
	svc := NewNotificationService(store, zap.NewNop())
	svc.SetWebSocketHub(hub)

	svc.Notify(&models.Notification{
		Type:     models.NotificationTypeEmergency,
		Severity: models.SeverityError,
		Message:  "не удалось закрыть вторую ногу",
	})

	if len(hub.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(hub.broadcasts))
	}
}

func TestNotify_NilNotificationIgnored(t *testing.T) {
	store := &mockStore{}
	svc := NewNotificationService(store, zap.NewNop())

	svc.Notify(nil)

	if len(store.created) != 0 {
		t.Errorf("created = %d, want 0", len(store.created))
	}
}

func TestNotify_WithoutHub(t *testing.T) {
	// Hub не обязателен - сервис работает только с БД
	store := &mockStore{}
	svc := NewNotificationService(store, zap.NewNop())

	svc.Notify(&models.Notification{
		Type:     models.NotificationTypeError,
		Severity: models.SeverityError,
		Message:  "ошибка API",
	})

	if len(store.created) != 1 {
		t.Fatalf("created = %d, want 1", len(store.created))
	}
}

func TestGetNotifications_LimitBounds(t *testing.T) {
	recent := make([]*models.Notification, 600)
	for i := range recent {
		recent[i] = &models.Notification{ID: i + 1}
	}
	store := &mockStore{recent: recent}
	svc := NewNotificationService(store, zap.NewNop())

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"ноль заменяется дефолтом", 0, 100},
		{"отрицательный заменяется дефолтом", -5, 100},
		{"обычный лимит", 50, 50},
		{"выше максимума обрезается", 1000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetNotifications(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCleanupOld(t *testing.T) {
	store := &mockStore{deleted: 7}
	svc := NewNotificationService(store, zap.NewNop())

	deleted, err := svc.CleanupOld(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d, want 7", deleted)
	}

	wantCutoff := time.Now().Add(-24 * time.Hour)
	if store.cutoff.Sub(wantCutoff) > time.Second || wantCutoff.Sub(store.cutoff) > time.Second {
		t.Errorf("cutoff = %v, ожидался ~%v", store.cutoff, wantCutoff)
	}
}

func TestCleanupOld_ZeroRetentionNoop(t *testing.T) {
	store := &mockStore{deleted: 7}
	svc := NewNotificationService(store, zap.NewNop())

	deleted, err := svc.CleanupOld(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}
