package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local playground server; accept everything.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request and starts the client pumps. The client
// is only registered with the hub once its join_game message arrives.
func ServeWs(hub *Hub, log *zap.SugaredLogger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		log:  log.With("remote", r.RemoteAddr),
	}
	go c.writePump()
	go c.readPump()
}
