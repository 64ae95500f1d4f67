package folio

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Webhook event types sent by the CMS.
const (
	eventAPIUpdate   = "api-update"
	eventTestTrigger = "test-trigger"
)

type revalidateRequest struct {
	Type   string `json:"type"`
	Secret string `json:"secret"`
}

// handleRevalidate is the CMS publish webhook. A valid api-update drops the
// post cache and every stored page so they are fetched again. Only failed
// secret checks count against the rate limit.
func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.RevalidateSecret == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	ip := c.RealIP()
	if !a.revalidateLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts"})
	}

	var req revalidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.Config.RevalidateSecret)) != 1 {
		a.revalidateLimiter.Record(ip)
		c.Logger().Warnf("revalidate: bad secret from %s", ip)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid secret"})
	}

	switch req.Type {
	case eventAPIUpdate:
		a.Cache.Invalidate()
		purged, err := a.Store.DeleteAll()
		if err != nil {
			return err
		}
		c.Logger().Infof("revalidate: cache cleared, %d stored pages purged", purged)
		return c.JSON(http.StatusOK, echo.Map{"revalidated": true, "purged": purged})
	case eventTestTrigger:
		return c.JSON(http.StatusOK, echo.Map{"revalidated": false})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event type"})
	}
}
