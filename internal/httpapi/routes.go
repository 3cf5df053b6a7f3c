package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/lol-balancer/internal/ws"
)

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.Log))

	r.Post("/lobbies", CreateLobby(d))
	r.Route("/lobbies/{code}", func(r chi.Router) {
		r.Get("/", GetSnapshot(d))
		r.Delete("/", RemoveLobby(d))

		r.Post("/participants", RegisterParticipant(d))
		r.Put("/participants/{name}", UpdateParticipant(d))
		r.Delete("/participants/{name}", RemoveParticipant(d))

		r.Put("/board/{role}/{side}", AssignSlot(d))
		r.Get("/board/{role}/{side}/candidates", Candidates(d))

		r.Post("/matches", RecordMatch(d))
		r.Get("/matches", ListMatches(d))
		r.Get("/standings", Standings(d))

		r.Get("/document", ExportDocument(d))
		r.Put("/document", ReloadDocument(d))
	})
	return r
}
