package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ideanest/internal/identity"
	"ideanest/internal/middleware"
	"ideanest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already wrote the error response;
// the handler just returns nil.
var errResponseWritten = errors.New("response already written")

// parseID extracts and validates a positive integer path parameter. On failure
// it writes the 400 response itself and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c,
			models.NewValidationError(fmt.Sprintf("Invalid %s", humanizeParam(param))))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func humanizeParam(param string) string {
	return strings.ReplaceAll(param, "_", " ")
}

// parsePage reads and clamps the page/limit query parameters.
func parsePage(c *fiber.Ctx) models.PageParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return models.NormalizePageParams(page, limit)
}

func identityRequest(c *fiber.Ctx) identity.Request {
	return identity.Request{
		UserID:         middleware.CurrentUserID(c),
		IP:             c.IP(),
		UserAgent:      c.Get(fiber.HeaderUserAgent),
		AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
		AcceptEncoding: c.Get(fiber.HeaderAcceptEncoding),
	}
}

// requesterIdentity resolves the caller's identity for routes where anonymous
// visitors act through fingerprints. On failure it writes the 400 response
// itself and returns errResponseWritten.
func requesterIdentity(c *fiber.Ctx) (identity.Identity, error) {
	id, err := identity.Resolve(identityRequest(c))
	if err != nil {
		_ = models.RespondWithError(c,
			models.NewValidationError("Unable to identify the requester"))
		return identity.Identity{}, errResponseWritten
	}
	return id, nil
}

// viewerIdentity resolves the caller's identity for read paths where identity
// only annotates the response (the liked flag). Unresolvable callers read as
// nobody rather than failing the request.
func viewerIdentity(c *fiber.Ctx) identity.Identity {
	id, err := identity.Resolve(identityRequest(c))
	if err != nil {
		return identity.Identity{}
	}
	return id
}

const refreshCookieName = "refresh_token"

// setRefreshCookie stores the refresh token in an httpOnly cookie scoped to
// the auth routes, keeping it away from client-side scripts.
func (s *Server) setRefreshCookie(c *fiber.Ctx, token string) {
	isProduction := s.config.Env == "production" || s.config.Env == "prod"
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		MaxAge:   int(s.config.RefreshTTL().Seconds()),
		HTTPOnly: true,
		Secure:   isProduction,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// refreshTokenFrom prefers the httpOnly cookie, falling back to the request
// body for non-browser clients.
func refreshTokenFrom(c *fiber.Ctx, bodyToken string) string {
	if t := c.Cookies(refreshCookieName); t != "" {
		return t
	}
	return bodyToken
}
