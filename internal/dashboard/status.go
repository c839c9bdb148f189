package dashboard

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/sage/internal/state"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	statusWriteWait  = 10 * time.Second
	statusBufferSize = 16
)

// handleStatus streams the session's snapshots: the current one on
// connect, then one per change until the client goes away.
func (d *Dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	s := d.session(r)
	updates := make(chan state.Snapshot, statusBufferSize)
	unsubscribe := s.Subscribe(func(snap state.Snapshot) {
		select {
		case updates <- snap:
		default:
			// Slow reader; it gets the next change.
		}
	})
	defer unsubscribe()

	// The read loop only exists to notice the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("dashboard: websocket read: %v", err)
				}
				return
			}
		}
	}()

	if !sendSnapshot(conn, s.Snapshot()) {
		return
	}
	for {
		select {
		case snap := <-updates:
			if !sendSnapshot(conn, snap) {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func sendSnapshot(conn *websocket.Conn, snap state.Snapshot) bool {
	conn.SetWriteDeadline(time.Now().Add(statusWriteWait))
	if err := conn.WriteJSON(snap); err != nil {
		log.Printf("dashboard: websocket write: %v", err)
		return false
	}
	return true
}
