// Package control exposes a read-only live view of a scheduler's Traffic
// Classes over HTTP and WebSocket, for operators and the CLI's demo mode.
// It never drives Enqueue/Dequeue itself.
package control

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/util"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// drrIntrospector is implemented by *scheduler.DRR; SPQ carries no such
// state, so Snapshot omits Active/Deficit when the type assertion fails.
type drrIntrospector interface {
	Active() int
	Deficit() []uint64
}

// Snapshot is the JSON shape served by /status and pushed to /status/ws
// subscribers.
type Snapshot struct {
	Classes []scheduler.ClassStats `json:"classes"`
	Active  *int                   `json:"active,omitempty"`
	Deficit []uint64               `json:"deficit,omitempty"`
}

// Server serves live scheduler introspection. Its methods are safe for
// concurrent use; it holds no lock over the scheduler itself beyond what
// Scheduler.Stats already provides.
type Server struct {
	addr   string
	sched  scheduler.Scheduler
	logger util.Logger

	hub        *hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
	doneCh     chan struct{}
}

// NewServer builds a control server bound to addr, introspecting sched.
func NewServer(addr string, sched scheduler.Scheduler, logger util.Logger) *Server {
	done := make(chan struct{})
	return &Server{
		addr:     addr,
		sched:    sched,
		logger:   logger,
		hub:      newHub(done),
		doneCh:   done,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Start begins serving HTTP in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/status/ws", s.handleStatusWS)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.logger.Info("control server listening",
			"host", tcpAddr.IP.String(),
			"port", util.FormatPort(tcpAddr.Port),
			"addr", util.NetJoin(tcpAddr.IP.String(), tcpAddr.Port))
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("control server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP server down and disconnects every WebSocket client.
func (s *Server) Stop() {
	close(s.doneCh)
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
}

// Observe implements scheduler.Observer: every dequeue pushes a fresh
// snapshot to connected WebSocket clients. The snapshot is taken on a
// separate goroutine, so Observe itself never calls back into the
// scheduler that is notifying it.
func (s *Server) Observe(evt scheduler.Event) {
	if evt.Op != "dequeue" {
		return
	}
	go func() {
		data, err := json.Marshal(s.snapshot())
		if err != nil {
			return
		}
		s.hub.Publish(data)
	}()
}

func (s *Server) snapshot() Snapshot {
	snap := Snapshot{Classes: s.sched.Stats()}
	if drr, ok := s.sched.(drrIntrospector); ok {
		active := drr.Active()
		snap.Active = &active
		snap.Deficit = drr.Deficit()
	}
	return snap
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	c := &client{send: make(chan []byte, 8)}
	s.hub.register(c)
	defer s.hub.unregister(c)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
