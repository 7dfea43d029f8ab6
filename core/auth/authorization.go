package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/audit"
)

// Role required for mutating API calls when the token lists roles.
const RoleOfficer = "officer"

type Authorizer struct {
	Verifier    *TokenVerifier
	AuditLogger audit.AuditLogger
}

type AuthorizationResult struct {
	Authorized bool
	Reason     string
	Claims     *Claims
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by Middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// AuthorizeRequest checks the bearer token on r.
func (a *Authorizer) AuthorizeRequest(r *http.Request) AuthorizationResult {
	entity := r.Method + " " + r.URL.Path
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		a.log(entity, audit.ResultFailure, "Missing bearer token", nil)
		return AuthorizationResult{false, "Missing bearer token", nil}
	}
	claims, err := a.Verifier.VerifyToken(strings.TrimSpace(token))
	if err != nil {
		a.log(entity, audit.ResultFailure, err.Error(), nil)
		return AuthorizationResult{false, "Invalid token: " + err.Error(), nil}
	}
	if len(claims.Roles) > 0 && !claims.HasRole(RoleOfficer) {
		a.log(entity, audit.ResultFailure, "Missing officer role", map[string]string{"subject": claims.Subject})
		return AuthorizationResult{false, "Missing officer role", claims}
	}
	a.log(entity, audit.ResultSuccess, "Authorized", map[string]string{"subject": claims.Subject})
	return AuthorizationResult{true, "Authorized", claims}
}

func (a *Authorizer) log(entity, result, reason string, meta map[string]string) {
	if a.AuditLogger == nil {
		return
	}
	if meta == nil {
		meta = map[string]string{}
	}
	a.AuditLogger.LogEvent(audit.AuditEvent{
		EventType: "Authorization",
		EntityID:  entity,
		Result:    result,
		Reason:    reason,
		Metadata:  meta,
		Timestamp: time.Now(),
	})
}

// Middleware rejects unauthorized requests with 401 and passes the rest through with
// their claims in the request context.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := a.AuthorizeRequest(r)
		if !res.Authorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="taxchain"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, res.Claims)))
	})
}
