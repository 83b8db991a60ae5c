package websocket

import (
	"log"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"ytdlweb/hub"
)

const (
	WriteWait      = 5 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = 30 * time.Second
	MaxMessageSize = 512
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func Upgrade(w http.ResponseWriter, r *http.Request) (*gws.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// WSConnection serializes writes to one gorilla connection; gorilla allows a
// single concurrent writer only.
type WSConnection struct {
	Conn *gws.Conn
	Lock sync.Mutex
}

func NewWSConnection(conn *gws.Conn) *WSConnection {
	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	return &WSConnection{Conn: conn}
}

func (ws *WSConnection) SendText(msg string) error {
	ws.Lock.Lock()
	defer ws.Lock.Unlock()

	_ = ws.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return ws.Conn.WriteMessage(gws.TextMessage, []byte(msg))
}

func (ws *WSConnection) Ping() error {
	ws.Lock.Lock()
	defer ws.Lock.Unlock()
	return ws.Conn.WriteControl(gws.PingMessage, []byte{}, time.Now().Add(10*time.Second))
}

// Pump writes every line queued for v until the hub closes its channel.
// A failed write is logged and the line is lost; the viewer stays
// registered until Listen notices the disconnect.
func (ws *WSConnection) Pump(v *hub.Viewer) {
	for msg := range v.Messages() {
		if err := ws.SendText(msg); err != nil {
			log.Printf("[WebSocket] send failed | ClientID: %s | Error: %v", v.ID, err)
		}
	}
}

// KeepAlive pings the client until done is closed or a ping fails.
func (ws *WSConnection) KeepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.Ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Listen reads until the client goes away. Client messages carry no meaning
// and are dropped.
func (ws *WSConnection) Listen(clientID string) {
	defer func() {
		log.Printf("WebSocket listener stopped | ClientID: %s", clientID)
	}()

	for {
		_, p, err := ws.Conn.ReadMessage()
		if err != nil {
			if gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
				log.Printf("WebSocket closed by client | ClientID: %s", clientID)
			} else {
				log.Printf("WebSocket read error | ClientID: %s | Error: %v", clientID, err)
			}
			return
		}
		log.Printf("Ignoring message from client [%s]: %d bytes", clientID, len(p))
	}
}

// GracefulClose sends a close frame and closes the socket.
func (ws *WSConnection) GracefulClose() {
	ws.Lock.Lock()
	defer ws.Lock.Unlock()

	_ = ws.Conn.WriteControl(
		gws.CloseMessage,
		gws.FormatCloseMessage(gws.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second),
	)
	_ = ws.Conn.Close()
}
