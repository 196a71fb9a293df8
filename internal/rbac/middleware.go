package rbac

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/apierr"
	authmw "github.com/mind-engage/edukid/internal/auth/middleware"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission for the caller's role.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := authmw.IdentityFromContext(r.Context())
			if !ok {
				apierr.Write(w, apierr.Unauthorized("Unauthorized"))
				return
			}
			if !defaultChecker.Has(string(id.Role), perm) {
				apierr.Write(w, apierr.Forbidden("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanViewLearner reports whether id may read learnerID's progress: the
// learner themself, a role with progress:view-all, or the learner's parent.
func (c *Checker) CanViewLearner(ctx context.Context, users account.Store, id authmw.Identity, learnerID int64) (bool, error) {
	role := string(id.Role)
	if id.UserID == learnerID && c.Has(role, PermProgressViewOwn) {
		return true, nil
	}
	if c.Has(role, PermProgressViewAll) {
		return true, nil
	}
	if !c.Has(role, PermProgressViewChild) {
		return false, nil
	}
	learner, err := users.GetByID(ctx, learnerID)
	if errors.Is(err, account.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return learner.ParentID != nil && *learner.ParentID == id.UserID, nil
}

// RequireLearnerAccess guards routes carrying a learner id in the URL
// parameter param.
func RequireLearnerAccess(users account.Store, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := authmw.IdentityFromContext(r.Context())
			if !ok {
				apierr.Write(w, apierr.Unauthorized("Unauthorized"))
				return
			}
			learnerID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || learnerID <= 0 {
				apierr.Write(w, apierr.BadRequest("Invalid learner id"))
				return
			}
			allowed, err := defaultChecker.CanViewLearner(r.Context(), users, id, learnerID)
			if err != nil {
				apierr.Write(w, err)
				return
			}
			if !allowed {
				apierr.Write(w, apierr.Forbidden("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
