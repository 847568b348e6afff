package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/stridekernd/stridekernd/internal/env"
	"github.com/stridekernd/stridekernd/internal/principal"
	"github.com/stridekernd/stridekernd/pkg/jsonx"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler issues and tears down the operator's session. Basic and
// Bearer credentials need no handler of their own — middleware.
// Authentication checks them on every request.
type AuthHandler struct {
	log   *zap.Logger
	isDev bool
}

func NewAuthHandler(log *zap.Logger, isDev bool) *AuthHandler {
	return &AuthHandler{log.Named("auth"), isDev}
}

// Login authenticates the operator and creates a new session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.Username != env.Admin.Username || req.Password != env.Admin.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("uid", req.Username)
	sess.Set("last_touch", time.Now().Unix())
	if err := sess.Save(); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	principal.SetPrincipal(c, req.Username, principal.Session)
	c.Status(http.StatusOK)
}

// Logout clears the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{
		Path:     "/api",
		MaxAge:   -1,
		Secure:   !h.isDev,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

// Me reports the authenticated caller's identity.
func Me(c *gin.Context) {
	p := principal.GetPrincipal(c)
	if p == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "credential_type": p.CredentialType.String()})
}

// Csrf issues a CSRF token for the current session, creating one if
// missing, for middleware.ValidateSessionCSRF to check on subsequent
// mutating calls.
func Csrf(c *gin.Context) {
	sess := sessions.Default(c)
	token, _ := sess.Get("csrf").(string)
	if token == "" {
		token = randomTokenHex(32)
		sess.Set("csrf", token)
		_ = sess.Save()
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.JSON(http.StatusOK, gin.H{"csrf": token})
}

func randomTokenHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
