package handler

import (
	"net/http"

	"go-resell-backoffice/internal/middleware"
	"go-resell-backoffice/internal/model"
)

// actorFromRequest identifies the operator behind a request for the audit
// log and for deleted_by on archived rows.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.UserID = claims.UserID
		actor.Username = claims.Email
		actor.Role = claims.Role
	}

	return actor
}
