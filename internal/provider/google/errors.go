package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/deskhub/deskhub/internal/apperr"
)

// mapAPIErr translates Google API failures into the service error taxonomy.
// 401/403 mean the access secret was rejected despite passing the local expiry
// check, so the caller should re-enter the refresh path.
func mapAPIErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return apperr.Wrap(apperr.RateLimited, op+": rate limited by provider", err)
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return apperr.Wrap(apperr.TokenRefreshFailed, op+": credential rejected by provider", err)
		case gerr.Code == http.StatusNotFound:
			return apperr.Wrap(apperr.NotFound, op+": remote object not found", err)
		default:
			return apperr.Wrap(apperr.Upstream, op+": provider request failed", err)
		}
	}
	return apperr.Wrap(apperr.Upstream, op+": provider unreachable", err)
}
