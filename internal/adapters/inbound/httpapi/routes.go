package httpapi

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/debug"
	"github.com/sufield/evault/internal/domain"
	"github.com/sufield/evault/internal/ports"
)

// Route binds a method and path to a RoleController method.
type Route struct {
	Method  string
	Pattern string
	Handler func(*RoleController, http.ResponseWriter, *http.Request)
}

// CaseRoutes is the route table mounted under every /api/{role} prefix.
var CaseRoutes = []Route{
	{http.MethodPost, "/case/create", (*RoleController).CreateCase},
	{http.MethodGet, "/case/{caseID}", (*RoleController).GetCase},
	{http.MethodGet, "/case/{caseID}/exists", (*RoleController).CaseExists},
	{http.MethodPut, "/case/update", (*RoleController).UpdateCase},
	{http.MethodDelete, "/case/{caseID}", (*RoleController).DeleteCase},
	{http.MethodGet, "/stats", (*RoleController).Stats},
}

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Connector ports.Connector
	// Roles binds each portal to its organization, user and contract.
	Roles map[string]config.RoleBinding
	// Documents is optional; without it the document routes are not mounted.
	Documents    DocumentStore
	MaxBodyBytes int64
	// AccessLog enables chi's request logger.
	AccessLog bool
	// Debug mounts the /_debug endpoints (fault injection, session counters).
	Debug bool
}

// NewRouter builds the REST facade.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Connector == nil {
		return nil, fmt.Errorf("connector is required")
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	if deps.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Printf("write error: %v", err)
		}
	})

	cases := NewRoleController(deps.Connector)
	for _, role := range domain.Roles() {
		binding, ok := deps.Roles[role.String()]
		if !ok {
			return nil, fmt.Errorf("no binding for role %s", role)
		}
		r.Route("/api/"+role.String(), func(sub chi.Router) {
			sub.Use(sessionMiddleware(role, binding))
			for _, rt := range CaseRoutes {
				handler := rt.Handler
				sub.Method(rt.Method, rt.Pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					handler(cases, w, req)
				}))
			}
		})
	}

	if deps.Documents != nil {
		limit := deps.MaxBodyBytes
		if limit <= 0 {
			limit = 1 << 20
		}
		docs := NewDocumentController(deps.Documents, limit)
		r.Post("/api/documents", docs.Upload)
		r.Get("/api/documents/{cid}", docs.Download)
	}

	if deps.Debug {
		introspector, _ := deps.Connector.(debug.Introspector)
		r.Mount("/_debug", debug.Handler(introspector))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r, nil
}
