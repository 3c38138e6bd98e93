package websocket

import (
	"bytes"
	"log"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"fundingarb/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ============ ОПТИМИЗАЦИЯ: sync.Pool для JSON буферов ============
// Убирает аллокации при каждом Broadcast

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512)) // начальный размер 512 байт
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер для broadcast сообщений всем подключенным клиентам.
// Обеспечивает real-time обновления данных на frontend без необходимости polling.
//
// Типы сообщений:
// - rateUpdate: свежие ставки финансирования и лучшая связка по символу
// - notification: новое уведомление (возможность, триггер, аварийная ситуация)
// - statsUpdate: агрегированная статистика рынка
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять сообщения: hub.Broadcast(message)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки главного цикла
	done chan struct{}

	// Счётчик отброшенных сообщений (broadcast канал переполнен)
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и broadcast.
//
// Медленные клиенты не блокируют рассылку: копируем список клиентов
// под коротким RLock, отправляем без блокировки, удаляем отстающих
// под Write Lock.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client connected. Total clients: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client disconnected. Total clients: %d", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
					// Сообщение отправлено успешно
				default:
					// Клиент не успевает обрабатывать сообщения
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				log.Printf("Removed %d slow clients. Total clients: %d", len(toRemove), total)
			}
		}
	}
}

// Stop останавливает главный цикл и закрывает все клиентские каналы
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast сериализует сообщение и отправляет его всем клиентам.
// Не блокируется: при переполненном канале сообщение отбрасывается.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернётся в пул)
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// BroadcastRaw отправляет уже сериализованные данные всем клиентам
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastRateUpdate отправляет свежие данные по символу
func (h *Hub) BroadcastRateUpdate(pair *models.FundingRatePair) {
	h.Broadcast(NewRateUpdateMessage(pair))
}

// BroadcastNotification отправляет новое уведомление
func (h *Hub) BroadcastNotification(notif *models.Notification) {
	h.Broadcast(NewNotificationMessage(notif))
}

// BroadcastStatsUpdate отправляет обновление статистики рынка
func (h *Hub) BroadcastStatsUpdate(stats *models.MarketStats) {
	h.Broadcast(NewStatsUpdateMessage(stats))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает число сообщений, отброшенных из-за
// переполненного broadcast канала
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
