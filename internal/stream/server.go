// Package stream ships loop events to remote renderers over websockets and
// feeds their camera back into the loop.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"planet-lod/internal/config"
	"planet-lod/internal/lod"
	"planet-lod/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

// Server drives a lod.Loop at a fixed frame rate and broadcasts its events.
// Only the Run goroutine touches the loop.
type Server struct {
	cfg      config.ServerConfig
	loop     *lod.Loop
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	joins  chan *Connection
	leaves chan *Connection

	camMu sync.Mutex
	cam   lod.Camera

	stats   atomic.Pointer[lod.Stats]
	clients atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server over loop starting from cam.
func New(cfg config.ServerConfig, loop *lod.Loop, cam lod.Camera) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		loop:   loop,
		joins:  make(chan *Connection),
		leaves: make(chan *Connection),
		cam:    cam,
		ctx:    ctx,
		cancel: cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	st := loop.Stats()
	s.stats.Store(&st)
	return s
}

// Handler returns the HTTP routes: /ws for renderers, /health for stats.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	log.Printf("stream: websocket endpoint ws://%s/ws", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Run updates the loop every frame and fans events out to clients until ctx
// is done or the server shuts down.
func (s *Server) Run(ctx context.Context) {
	rate := s.cfg.FrameRate
	if rate <= 0 {
		rate = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	// unblocks handlers waiting to register once Run is gone
	defer s.cancel()

	conns := make(map[*Connection]bool)
	defer func() {
		for c := range conns {
			c.close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return

		case c := <-s.joins:
			// snapshot first so the client sees every later event
			ok := true
			for _, m := range s.loop.Attached() {
				data, err := encodeAdd(m)
				if err != nil {
					log.Printf("stream: encode %s: %v", m.Key, err)
					continue
				}
				if ok = c.enqueue(data); !ok {
					break
				}
			}
			if ok {
				conns[c] = true
				s.clients.Store(int32(len(conns)))
			}

		case c := <-s.leaves:
			delete(conns, c)
			c.close()
			s.clients.Store(int32(len(conns)))

		case <-ticker.C:
			events := s.loop.Update(s.camera())
			st := s.loop.Stats()
			s.stats.Store(&st)
			s.broadcast(conns, events)
		}
	}
}

func (s *Server) broadcast(conns map[*Connection]bool, events []lod.Event) {
	if len(events) == 0 || len(conns) == 0 {
		return
	}
	defer profiling.Track("stream.broadcast")()
	for _, ev := range events {
		data, err := encodeEvent(ev)
		if err != nil {
			log.Printf("stream: encode %s: %v", ev.Key, err)
			continue
		}
		for c := range conns {
			if !c.enqueue(data) {
				delete(conns, c)
			}
		}
	}
	s.clients.Store(int32(len(conns)))
}

func (s *Server) camera() lod.Camera {
	s.camMu.Lock()
	defer s.camMu.Unlock()
	return s.cam
}

func (s *Server) setCamera(p mgl64.Vec3) {
	s.camMu.Lock()
	s.cam.Position = p
	s.camMu.Unlock()
}

func (s *Server) register(c *Connection) bool {
	select {
	case s.joins <- c:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) unregister(c *Connection) {
	select {
	case s.leaves <- c:
	case <-s.ctx.Done():
		c.close()
	}
}

// Shutdown stops the HTTP listener and the frame loop.
func (s *Server) Shutdown() error {
	log.Println("stream: shutting down")
	s.cancel()
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade failed: %v", err)
		return
	}
	conn := newConnection(ws, s)
	if !s.register(conn) {
		ws.Close()
		return
	}
	log.Printf("stream: renderer connected from %s", r.RemoteAddr)
	conn.handle()
}

type healthResponse struct {
	Status  string    `json:"status"`
	Clients int       `json:"clients"`
	Stats   lod.Stats `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Clients: int(s.clients.Load()),
		Stats:   *s.stats.Load(),
	})
}
