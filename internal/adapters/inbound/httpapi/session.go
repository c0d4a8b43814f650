package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls"
	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/domain"
	"github.com/sufield/evault/internal/ports"
)

// UserHeader overrides the role's default ledger user when no verified
// peer identity is available.
const UserHeader = "X-Evault-User"

type contextKey string

const sessionKey contextKey = "evault-session"

// Session is the explicit per-request identity: which portal the request
// came through and which organization, user and contract it acts as.
type Session struct {
	Role     domain.Role
	Org      string
	User     string
	Channel  string
	Contract string
	// Peer is the verified client SPIFFE ID under mTLS; zero otherwise.
	Peer spiffeid.ID
}

// Target returns the ledger target the session acts on.
func (s Session) Target() ports.Target {
	return ports.Target{Org: s.Org, User: s.User, Channel: s.Channel, Contract: s.Contract}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session attached by the role middleware.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// sessionMiddleware builds the Session for every request routed to role.
//
// The ledger user is, in order: the last path segment of a verified peer
// SPIFFE ID, the X-Evault-User header, the binding's default user.
func sessionMiddleware(role domain.Role, b config.RoleBinding) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := Session{
				Role:     role,
				Org:      b.Org,
				User:     b.User,
				Channel:  b.Channel,
				Contract: b.Contract,
			}

			if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
				s.User = u
			}
			if r.TLS != nil {
				if id, err := spiffetls.PeerIDFromConnectionState(*r.TLS); err == nil {
					s.Peer = id
					if u := lastSegment(id.Path()); u != "" {
						s.User = u
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
