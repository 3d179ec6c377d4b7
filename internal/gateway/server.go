package gateway

import (
	"net/http"

	"github.com/rs/cors"
)

// Handler builds the gateway's HTTP surface: the websocket endpoint for
// the renderer plus a health probe, wrapped in permissive CORS for the
// local dev server the UI runs on.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Upgrade(w, r); err != nil {
			http.Error(w, "upgrade failed", http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
}
