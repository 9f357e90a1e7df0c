package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/response"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/ctxutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GoogleSignIn exchanges a Google ID token for a session token.
func (ah *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid request body"))
		return
	}
	session, err := ah.authService.ExchangeGoogleCredential(c.Request.Context(), req.Credential)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, session)
}

func (ah *AuthHandler) Me(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondErr(c, apierr.Unauthorized("authentication required"))
		return
	}
	response.RespondOK(c, gin.H{
		"email":    rd.Email,
		"isAdmin":  rd.IsAdmin,
		"provider": rd.Provider,
	})
}
