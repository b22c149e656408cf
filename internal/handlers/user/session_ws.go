package user

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// SessionSocket pushes session changes made by other tabs to this one.
type SessionSocket struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewSessionSocket accepts upgrades from the given origins; "*" allows any.
func NewSessionSocket(allowedOrigins []string, log *zap.Logger) *SessionSocket {
	return &SessionSocket{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// GET /api/session/ws
func (s *SessionSocket) Serve(c *gin.Context) {
	storage := middleware.Storage(c)
	users := middleware.Users(c)
	sid := storage.ID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := storage.Subscribe(ctx)
	if err != nil {
		s.log.Error("session subscribe failed", zap.String("session_id", sid), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}
	defer sub.Close()

	raw, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("session_id", sid), zap.Error(err))
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	// The client never sends anything useful; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := raw.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.send(s.hello(ctx, storage, users)); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			msg := s.message(ctx, storage, users, ev)
			if msg == nil {
				continue
			}
			if err := conn.send(msg); err != nil {
				s.log.Debug("websocket send failed", zap.String("session_id", sid), zap.Error(err))
				return
			}
		}
	}
}

// hello is the first message of a connection. The cart is left out when it
// cannot be read.
func (s *SessionSocket) hello(ctx context.Context, storage *cache.SessionStorage, users *cache.UserStore) gin.H {
	msg := gin.H{"type": "connected", "user": users.Current()}
	ct, err := storage.Cart(ctx)
	if err != nil {
		s.log.Warn("cart load failed", zap.String("session_id", storage.ID()), zap.Error(err))
		return msg
	}
	msg["cart"] = cartView(ct)
	return msg
}

func (s *SessionSocket) message(ctx context.Context, storage *cache.SessionStorage, users *cache.UserStore, ev cache.Event) gin.H {
	switch ev.Key {
	case cache.KeyUser, cache.KeyToken:
		if _, err := users.Apply(ctx, ev); err != nil {
			s.log.Warn("user refresh failed", zap.String("session_id", storage.ID()), zap.Error(err))
			return nil
		}
		return gin.H{"type": "user_updated", "user": users.Current()}
	case cache.KeyCart:
		ct, err := storage.Cart(ctx)
		if err != nil {
			s.log.Warn("cart refresh failed", zap.String("session_id", storage.ID()), zap.Error(err))
			return nil
		}
		return gin.H{"type": "cart_updated", "cart": cartView(ct)}
	case cache.KeyFilters:
		f, err := storage.Filters(ctx)
		if err != nil {
			return nil
		}
		return gin.H{"type": "filters_updated", "filters": f}
	case cache.KeyCheckout:
		return gin.H{"type": "checkout_updated", "deleted": ev.Deleted}
	}
	return nil
}
