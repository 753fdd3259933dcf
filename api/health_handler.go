package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder Responder
}

func newHealthHandler() healthHandler {
	return healthHandler{responder: NewResponder(log.With().Str("handlerName", "healthHandler").Logger())}
}

// health reports liveness only; it does not touch the database.
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
