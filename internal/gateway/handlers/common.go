// ============================================================================
// internal/gateway/handlers/common.go
// Decode and audit helpers shared across handlers
// ============================================================================

// Package handlers implements the REST endpoints of the gateway. Each domain
// gets its own handler struct over the DataAccess backend; permission and
// authentication checks happen in the router middleware before any handler
// runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"classflow/internal/classdetail"
	"classflow/internal/gateway/util"
	"classflow/internal/shared"
	"classflow/internal/store"
)

// decodeAndValidate decodes the JSON body into dst and runs the validator.
// It writes the error response itself and reports whether the caller should
// proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return false
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// requireClassAccess enforces row-level scoping on a single class: teachers
// and CMs may only touch classes bound to their own id. Runs after the
// boolean permission gate. Writes the 403 itself and reports whether the
// caller should proceed.
func requireClassAccess(w http.ResponseWriter, r *http.Request, class *shared.ClassRecord) bool {
	if !classdetail.CanAccessClass(util.UserFromContext(r.Context()), class) {
		util.WriteJSONError(w, http.StatusForbidden, "permission denied")
		return false
	}
	return true
}

// Auditor appends audit entries for mutating gateway actions. Audit failures
// are logged, never surfaced; the mutation itself already succeeded.
type Auditor struct {
	DA store.DataAccess
}

// Log records one mutating action by the request's user.
func (a *Auditor) Log(ctx context.Context, action, resource string, details map[string]string) {
	if a == nil || a.DA == nil {
		return
	}

	entry := shared.AuditLog{
		Timestamp: time.Now(),
		Action:    action,
		Resource:  resource,
		Details:   details,
	}
	if user := util.UserFromContext(ctx); user != nil {
		entry.UserID = user.ID
	}

	if err := a.DA.AppendAudit(ctx, entry); err != nil {
		log.Printf("Warning: failed to append audit entry (%s %s): %v", action, resource, err)
	}
}
