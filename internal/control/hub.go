package control

import "sync"

// client is one connected WebSocket subscriber; send is buffered so a slow
// reader drops frames instead of blocking the broadcaster.
type client struct {
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// hub fans a stream of marshalled snapshots out to every registered client.
type hub struct {
	mu        sync.Mutex
	clients   map[*client]struct{}
	broadcast chan []byte
	done      <-chan struct{}
}

func newHub(done <-chan struct{}) *hub {
	h := &hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan []byte, 128),
		done:      done,
	}
	go h.run()
	return h
}

func (h *hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				c.close()
			}
			h.clients = make(map[*client]struct{})
			h.mu.Unlock()
			return
		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *hub) Publish(data []byte) {
	select {
	case h.broadcast <- data:
	default:
	}
}
