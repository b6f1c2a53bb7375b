package realtime

import (
	"context"
)

type message struct {
	topic string
	data  []byte
}

type countRequest struct {
	topic string
	reply chan int
}

// Hub owns the connected display clients, grouped by topic (one topic per
// kiosk), and fans frames out to them. Slow clients are dropped rather than
// allowed to stall the others.
type Hub struct {
	topics map[string]map[*Client]bool

	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	count      chan countRequest
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.topics {
				for client := range clients {
					h.drop(client)
				}
			}
			return

		case client := <-h.register:
			clients := h.topics[client.topic]
			if clients == nil {
				clients = make(map[*Client]bool)
				h.topics[client.topic] = clients
			}
			clients[client] = true

		case client := <-h.unregister:
			h.drop(client)

		case req := <-h.count:
			req.reply <- len(h.topics[req.topic])

		case msg := <-h.broadcast:
			for client := range h.topics[msg.topic] {
				select {
				case client.send <- msg.data:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	clients, ok := h.topics[client.topic]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}
	close(client.send)
	_ = client.conn.Close()
}

// Publish queues data for every client on topic.
func (h *Hub) Publish(ctx context.Context, topic string, data []byte) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- message{topic: topic, data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connected reports how many clients listen on topic.
func (h *Hub) Connected(ctx context.Context, topic string) (int, error) {
	req := countRequest{topic: topic, reply: make(chan int, 1)}
	select {
	case h.count <- req:
	case <-h.done:
		return 0, ErrHubStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return <-req.reply, nil
}
