package websocket

import (
	"context"

	"github.com/sirupsen/logrus"

	"aura-go/internal/metrics"
)

type delivery struct {
	userID uint
	frame  []byte
}

// Hub maintains the set of active clients and pushes frames to them.
// Only the Run goroutine touches the clients map.
type Hub struct {
	// 一个用户可以有多个连接（多个标签页）
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	direct     chan delivery
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan delivery, 256),
	}
}

// Deliver queues frame for every connection of userID. It never blocks the
// caller (the Kafka consumer): a full queue drops the frame.
func (h *Hub) Deliver(userID uint, frame []byte) {
	select {
	case h.direct <- delivery{userID: userID, frame: frame}:
	default:
		metrics.NotificationDelivered("dropped")
		logrus.WithField("user_id", userID).Warn("Hub direct channel is full, dropping notification")
	}
}

// Run serves register, unregister and delivery requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	logrus.Info("WebSocket Hub Run loop started.")
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			h.clients = make(map[uint]map[*Client]struct{})
			logrus.Info("WebSocket Hub stopped.")
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			metrics.WebSocketConnected()
			logrus.WithFields(logrus.Fields{"user_id": client.UserID, "connections": len(conns)}).Info("客户端已注册")

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.direct:
			conns, ok := h.clients[d.userID]
			if !ok || len(conns) == 0 {
				// not connected to this instance
				metrics.NotificationDelivered("offline")
				continue
			}
			for c := range conns {
				select {
				case c.send <- d.frame:
					metrics.NotificationDelivered("delivered")
				default:
					logrus.WithField("user_id", d.userID).Warn("发送通道已满，移除客户端")
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
	metrics.WebSocketDisconnected()
	logrus.WithField("user_id", client.UserID).Info("客户端已注销")
}
