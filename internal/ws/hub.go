package ws

import (
	"sync"
)

// Hub 维护活跃的客户端连接并按房间广播消息
type Hub struct {
	// 注册的客户端
	clients map[*Client]bool

	// 房间对应的客户端集合 RoomID -> Client -> bool
	rooms map[uint]map[*Client]bool

	// 互斥锁，保护 map 的并发读写
	mu sync.RWMutex

	// 注册请求通道
	register chan *Client

	// 注销请求通道
	unregister chan *Client

	// 广播消息通道
	broadcast chan *BroadcastMessage
}

// BroadcastMessage 广播消息结构
type BroadcastMessage struct {
	RoomID  uint `json:"room_id"`
	Message any  `json:"message"`
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan *BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			for _, roomID := range client.roomIDs {
				if _, ok := h.rooms[roomID]; !ok {
					h.rooms[roomID] = make(map[*Client]bool)
				}
				h.rooms[roomID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for _, roomID := range client.roomIDs {
					if room, ok := h.rooms[roomID]; ok {
						delete(room, client)
						if len(room) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.rooms[msg.RoomID]; ok {
				for client := range clients {
					select {
					case client.send <- msg:
					default:
						// 发送缓冲区满，丢弃这条，连接的清理交给 unregister
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastToRoom 发送消息到指定房间的所有在线客户端
func (h *Hub) BroadcastToRoom(roomID uint, message any) {
	h.broadcast <- &BroadcastMessage{
		RoomID:  roomID,
		Message: message,
	}
}
