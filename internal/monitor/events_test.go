package monitor

import (
	"testing"
	"time"

	"fundingarb/internal/models"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	sub1 := bus.SubscribeOpportunityDetected()
	sub2 := bus.SubscribeOpportunityDetected()

	bus.PublishOpportunityDetected(OpportunityDetectedEvent{
		Symbol:    "BTCUSDT",
		Pair:      &models.FundingRatePair{Symbol: "BTCUSDT"},
		Reason:    "spread above threshold",
		Timestamp: time.Now(),
	})

	for i, sub := range []<-chan OpportunityDetectedEvent{sub1, sub2} {
		select {
		case e := <-sub:
			if e.Symbol != "BTCUSDT" {
				t.Errorf("subscriber %d: symbol = %q, want BTCUSDT", i+1, e.Symbol)
			}
		default:
			t.Errorf("subscriber %d не получил событие", i+1)
		}
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus()

	// Не должно паниковать и блокироваться
	bus.PublishRateUpdated(RateUpdatedEvent{Timestamp: time.Now()})
	bus.PublishTriggerDetected(TriggerDetectedEvent{Timestamp: time.Now()})
	bus.PublishTriggerHandled(TriggerHandledEvent{Timestamp: time.Now()})
	bus.PublishOpportunityDisappeared(OpportunityDisappearedEvent{Symbol: "ETHUSDT"})
}

func TestTrySend_DropsOnFullBuffer(t *testing.T) {
	ch := make(chan int, 2)

	if !trySend(ch, 1, "test") {
		t.Fatal("отправка в пустой канал должна пройти")
	}
	if !trySend(ch, 2, "test") {
		t.Fatal("отправка в неполный канал должна пройти")
	}

	// Буфер полон: событие теряется, публикация не блокируется
	if trySend(ch, 3, "test") {
		t.Error("отправка в полный канал должна вернуть false")
	}

	if got := <-ch; got != 1 {
		t.Errorf("первое событие = %d, want 1 (порядок сохранён)", got)
	}
}

func TestBus_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewBus()
	bus.SubscribeRateUpdated() // канал никто не читает

	done := make(chan struct{})
	go func() {
		// Публикуем больше ёмкости буфера
		for i := 0; i < defaultEventBuffer*2; i++ {
			bus.PublishRateUpdated(RateUpdatedEvent{Timestamp: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
		// Публикация завершилась несмотря на переполненный буфер
	case <-time.After(time.Second):
		t.Fatal("публикация заблокировалась на медленном подписчике")
	}
}
