package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acampos/iptv-player/api"
)

// SetupRoutes configures all HTTP routes and handlers
func SetupRoutes(deps Dependencies) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Printf("Error writing health response: %v", err)
		}
	}).Methods(http.MethodGet)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	h := api.NewHandler(deps.Engine, deps.Logger)

	r := router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/state", h.GetState).Methods(http.MethodGet)

	r.HandleFunc("/playlists", h.GetPlaylists).Methods(http.MethodGet)
	r.HandleFunc("/playlists", h.AddPlaylist).Methods(http.MethodPost)
	r.HandleFunc("/playlists/reorder", h.ReorderPlaylists).Methods(http.MethodPost)
	r.HandleFunc("/playlists/{id}", h.UpdatePlaylist).Methods(http.MethodPut)
	r.HandleFunc("/playlists/{id}", h.DeletePlaylist).Methods(http.MethodDelete)

	r.HandleFunc("/groups", h.GetGroups).Methods(http.MethodGet)
	r.HandleFunc("/groups/select", h.SelectGroup).Methods(http.MethodPost)

	r.HandleFunc("/channels", h.GetChannels).Methods(http.MethodGet)
	r.HandleFunc("/channels/current", h.GetCurrentChannel).Methods(http.MethodGet)
	r.HandleFunc("/channels/{id}/select", h.SelectChannel).Methods(http.MethodPost)
	r.HandleFunc("/channels/{id}/volume", h.GetVolume).Methods(http.MethodGet)
	r.HandleFunc("/channels/{id}/volume", h.SetVolume).Methods(http.MethodPut)

	r.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)

	return router
}
