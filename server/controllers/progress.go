package controllers

import (
	"net/http"

	"github.com/jfrog/frogbot-installer/server/controllers/websocket"
	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
)

// ProgressController streams installation progress to the wizard.
type ProgressController struct {
	Handler websocket.Handler
	Logger  logging.Logger
}

func (c *ProgressController) GetWS(w http.ResponseWriter, r *http.Request) {
	if err := c.Handler.Handle(w, r); err != nil {
		c.Logger.WarnContext(r.Context(), "progress websocket closed", map[string]interface{}{
			key.ErrKey.String(): err.Error(),
		})
	}
}
