package accounts

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"collab-app/config"
	"collab-app/database"
	"collab-app/internal/domain/accounts"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes: []string{
			"openid",
			"email",
			"profile",
		},
		Endpoint: google.Endpoint,
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /accounts/link — starts the OAuth dance that links a platform channel to
// the authenticated creator. Offline access so the refresh token can be stored;
// refreshing it is not this service's job.
func LinkStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	c.SetCookie("link_state", state, 300, "/", "", false, true)
	// carry the creator through the redirect round-trip
	c.SetCookie("link_uid", c.GetString("user_id"), 300, "/", "", false, true)

	url := googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusFound, url)
}

// GET /accounts/link/callback
func LinkCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie("link_state")
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	creatorID, err := c.Cookie("link_uid")
	if err != nil || creatorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "link session expired"})
		return
	}

	ctx := c.Request.Context()

	token, err := googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "code exchange failed"})
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "no id_token in response"})
		return
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "oidc provider unavailable"})
		return
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to parse claims"})
		return
	}

	var refresh *string
	if token.RefreshToken != "" {
		refresh = &token.RefreshToken
	}

	// one channel links once; re-linking reconnects it under the same creator
	var acct accounts.Account
	err = database.DB.First(&acct, "provider_sub = ?", claims.Sub).Error
	switch {
	case err == nil:
		if acct.CreatorID != creatorID {
			c.JSON(http.StatusConflict, gin.H{"error": "Channel already linked to another creator"})
			return
		}
		updates := map[string]interface{}{
			"status": accounts.AccountConnected,
			"email":  claims.Email,
			"title":  claims.Name,
		}
		if refresh != nil {
			updates["refresh_token"] = refresh
		}
		if err := database.DB.Model(&acct).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		acct = accounts.Account{
			CreatorID:    creatorID,
			Platform:     "youtube",
			Email:        claims.Email,
			Title:        claims.Name,
			ProviderSub:  &claims.Sub,
			RefreshToken: refresh,
			Status:       accounts.AccountConnected,
		}
		if err := database.DB.Create(&acct).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link account"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
		return
	}

	if config.GOOGLE_FRONTEND_REDIRECT != "" {
		c.Redirect(http.StatusFound, config.GOOGLE_FRONTEND_REDIRECT)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct})
}
