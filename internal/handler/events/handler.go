package events

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	middlewarePkg "github.com/zhouzirui/people-api/backend/internal/middleware"
	"github.com/zhouzirui/people-api/backend/internal/service/directory"
	"github.com/zhouzirui/people-api/backend/pkg/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// Source hands out event subscriptions.
type Source interface {
	Subscribe(buffer int) (<-chan directory.Event, func())
}

// Handler 通过 SSE 与 WebSocket 推送目录变更
type Handler struct {
	source    Source
	buffer    int
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// New 创建事件推送处理器。allowedOrigins 与 CORS 使用同一份白名单，为空时不限制。
func New(source Source, buffer int, allowedOrigins []string) *Handler {
	origins := middlewarePkg.NewOriginMatcher(allowedOrigins)
	return &Handler{
		source:    source,
		buffer:    buffer,
		heartbeat: 15 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 非浏览器客户端不带 Origin
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Allowed(origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
	r.Get("/ws", h.handleWebSocket)
}

// handleSSE 以 text/event-stream 推送事件，空闲时发送心跳注释
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.source.Subscribe(h.buffer)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	reqID := middleware.GetReqID(r.Context())
	log.Printf("[events] sse subscriber opened request=%s", reqID)
	defer log.Printf("[events] sse subscriber closed request=%s", reqID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, e.ID, string(e.Type), e); err != nil {
				log.Printf("[events] sse write failed request=%s: %v", reqID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}

// handleWebSocket 以 JSON 文本帧推送事件；客户端发送的消息被忽略
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Subscribe first so nothing published after the handshake is missed.
	events, cancel := h.source.Subscribe(h.buffer)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	reqID := middleware.GetReqID(r.Context())
	log.Printf("[events] websocket subscriber opened request=%s", reqID)
	defer log.Printf("[events] websocket subscriber closed request=%s", reqID)

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				log.Printf("[events] websocket write failed request=%s: %v", reqID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[events] websocket read error: %v", err)
			}
			return
		}
	}
}
