package websocket

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/progress"
	"github.com/pkg/errors"
)

// Writer is the only goroutine writing to a connection once the handshake
// has completed.
type Writer struct {
	log logging.Logger
}

func (w *Writer) Write(ctx context.Context, conn *websocket.Conn, outbox *progress.Outbox, echoes <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-outbox.Done():
			return nil
		case event := <-outbox.Events():
			payload, err := json.Marshal(event)
			if err != nil {
				return errors.Wrap(err, "marshalling progress event")
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				w.log.WarnContext(ctx, "failed to write ws message", map[string]interface{}{
					"err": err.Error(),
				})
				return err
			}
		case payload := <-echoes:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				w.log.WarnContext(ctx, "failed to write ws message", map[string]interface{}{
					"err": err.Error(),
				})
				return err
			}
		}
	}
}
