package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/auth"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

func RegisterRoutes(r chi.Router, authHandler *auth.AuthHandler, h *Handler, m *metrics.Manager) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(Instrument(m))

	// Initialize Huma API
	config := huma.DefaultConfig("Circuit Events API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		auth.SecurityScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler())

	operator := func(o *huma.Operation) {
		o.Security = []map[string][]string{{auth.SecurityScheme: {}}}
		o.Middlewares = append(o.Middlewares, authHandler.OperatorMiddleware(api))
	}
	operatorOp := func(o huma.Operation) huma.Operation {
		operator(&o)
		return o
	}

	// Events
	huma.Register(api, operatorOp(huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Create an event",
		Tags:          []string{"events"},
		DefaultStatus: http.StatusCreated,
	}), h.HandleCreateEvent)
	huma.Get(api, "/events/{eventID}", h.HandleGetEvent, func(o *huma.Operation) {
		o.Tags = []string{"events"}
	})
	huma.Patch(api, "/events/{eventID}/spots", h.HandleSetSpots, func(o *huma.Operation) {
		o.Tags = []string{"events"}
		operator(o)
	})
	huma.Get(api, "/events/{eventID}/roster", h.HandleRoster, func(o *huma.Operation) {
		o.Tags = []string{"events"}
		operator(o)
	})
	huma.Get(api, "/events/{eventID}/waitlist", h.HandleWaitlist, func(o *huma.Operation) {
		o.Tags = []string{"waitlist"}
		operator(o)
	})
	huma.Register(api, operatorOp(huma.Operation{
		OperationID:   "remove-from-roster",
		Method:        http.MethodDelete,
		Path:          "/events/{eventID}/roster/{userID}",
		Summary:       "Remove an attendee and restore their credit",
		Tags:          []string{"events"},
		DefaultStatus: http.StatusNoContent,
	}), h.HandleRemoveFromRoster)
	huma.Register(api, operatorOp(huma.Operation{
		OperationID:   "reconcile-event",
		Method:        http.MethodPost,
		Path:          "/events/{eventID}/reconcile",
		Summary:       "Compare cached counters with the roster",
		Tags:          []string{"events"},
		DefaultStatus: http.StatusOK,
	}), h.HandleReconcile)

	// Signups
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/events/{eventID}/signups",
		Summary:       "Sign up for an event",
		Tags:          []string{"signups"},
		DefaultStatus: http.StatusCreated,
	}, h.HandleSignup)
	huma.Register(api, huma.Operation{
		OperationID:   "signout",
		Method:        http.MethodDelete,
		Path:          "/events/{eventID}/signups/{userID}",
		Summary:       "Sign out of an event",
		Tags:          []string{"signups"},
		DefaultStatus: http.StatusNoContent,
	}, h.HandleSignout)

	// Waitlist
	huma.Register(api, huma.Operation{
		OperationID:   "join-waitlist",
		Method:        http.MethodPost,
		Path:          "/events/{eventID}/waitlist",
		Summary:       "Join an event's waitlist",
		Tags:          []string{"waitlist"},
		DefaultStatus: http.StatusCreated,
	}, h.HandleJoinWaitlist)
	huma.Register(api, huma.Operation{
		OperationID:   "leave-waitlist",
		Method:        http.MethodDelete,
		Path:          "/events/{eventID}/waitlist/{userID}",
		Summary:       "Leave an event's waitlist",
		Tags:          []string{"waitlist"},
		DefaultStatus: http.StatusNoContent,
	}, h.HandleLeaveWaitlist)

	// Users and matching
	huma.Put(api, "/users/{userID}/profile", h.HandlePutProfile, func(o *huma.Operation) {
		o.Tags = []string{"users"}
		operator(o)
	})
	huma.Put(api, "/users/{userID}/answers", h.HandlePutAnswers, func(o *huma.Operation) {
		o.Tags = []string{"users"}
	})
	huma.Get(api, "/events/{eventID}/matches/{userID}", h.HandleMatches, func(o *huma.Operation) {
		o.Tags = []string{"matching"}
	})

	return api
}
