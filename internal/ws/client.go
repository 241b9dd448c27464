package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 代表一个 WebSocket 连接客户端
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// 缓冲通道，用于发送消息
	send chan *BroadcastMessage

	userID uint

	// 连接建立时用户已加入的房间 ID 列表（用于订阅）
	roomIDs []uint

	messageService *services.MessageService

	log *zap.Logger
}

// readPump 泵送来自 WebSocket 连接的消息
// 客户端发送 {"room_id": 1, "content": "hello"}，落库后经 Hub/Kafka 扇出
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			break
		}

		var req struct {
			RoomID  uint   `json:"room_id"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			c.log.Warn("malformed websocket message", zap.Uint("user_id", c.userID), zap.Error(err))
			continue
		}

		sendReq := &services.SendMessageRequest{Content: req.Content}
		if _, err := c.messageService.Send(context.Background(), c.userID, req.RoomID, sendReq); err != nil {
			c.log.Warn("websocket message rejected",
				zap.Uint("user_id", c.userID),
				zap.Uint("room_id", req.RoomID),
				zap.Error(err),
			)
			continue
		}
	}
}

// writePump 泵送来自 Hub 的消息到 WebSocket 连接
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			json.NewEncoder(w).Encode(msg)

			// 顺带刷掉队列里积压的消息
			n := len(c.send)
			for range n {
				json.NewEncoder(w).Encode(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs 处理 WebSocket 升级请求
// 依赖认证中间件事先把 user_id 放进 context（token 经 Query 参数传递）
func ServeWs(hub *Hub, messageService *services.MessageService, memberService *services.MemberService, log *zap.Logger, c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": 0,
			"error":   gin.H{"code": "unauthorized", "message": "missing access token"},
		})
		return
	}
	uID := userID.(uint)

	roomIDs, err := memberService.RoomIDsFor(c.Request.Context(), uID)
	if err != nil {
		log.Warn("failed to load room subscriptions", zap.Uint("user_id", uID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"success": 0,
			"error":   gin.H{"code": "internal", "message": "internal error"},
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan *BroadcastMessage, 256),
		userID:         uID,
		roomIDs:        roomIDs,
		messageService: messageService,
		log:            log,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
