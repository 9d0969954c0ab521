package routes

import (
	accountsapi "collab-app/internal/api/accounts"
	authapi "collab-app/internal/api/auth"
	contributionsapi "collab-app/internal/api/contributions"
	foldersapi "collab-app/internal/api/folders"
	mapsapi "collab-app/internal/api/maps"
	usersapi "collab-app/internal/api/users"
	"collab-app/internal/app/http/middleware"
	"collab-app/internal/domain/access"
	"collab-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// the OAuth provider redirects here without an Authorization header
	r.GET("/accounts/link/callback", accountsapi.LinkCallback)

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)

	// Authenticated, any role
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.RequireRole(access.AnyRole))

	auth.GET("/me", usersapi.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	auth.GET("/maps", mapsapi.ListMaps)
	auth.PUT("/maps/:id/status", mapsapi.UpdateMapStatus)

	auth.GET("/contributions/:id/versions", contributionsapi.ListVersions)
	auth.GET("/versions/:id/comments", contributionsapi.ListComments)
	auth.POST("/versions/:id/comments", contributionsapi.CreateComment)
	auth.GET("/versions/:id/media", contributionsapi.GetVersionMedia)

	// Creator side
	creator := r.Group("/")
	creator.Use(middleware.AuthMiddleware(), middleware.RequireRole(access.Roles(users.RoleCreator)))

	creator.GET("/accounts/link", accountsapi.LinkStart)
	creator.GET("/accounts", accountsapi.ListAccounts)
	creator.DELETE("/accounts/:id", accountsapi.DisconnectAccount)

	creator.GET("/editors/lookup", mapsapi.LookupEditor)
	creator.POST("/editors/request", mapsapi.RequestEditor)
	creator.GET("/accounts/:id/editors", mapsapi.ListAccountEditors)
	creator.PUT("/accounts/:id/editors/:editorId", mapsapi.ChangeAccountEditorStatus)

	creator.POST("/folders", foldersapi.CreateFolder)
	creator.GET("/accounts/:id/folders", foldersapi.ListAccountFolders)
	creator.PUT("/folders/:id", foldersapi.UpdateFolder)
	creator.DELETE("/folders/:id", foldersapi.DeleteFolder)

	creator.GET("/accounts/:id/contributions", contributionsapi.ListAccountContributions)
	creator.PUT("/versions/:id/status", contributionsapi.UpdateVersionStatus)

	// Editor side
	editor := r.Group("/")
	editor.Use(middleware.AuthMiddleware(), middleware.RequireRole(access.Roles(users.RoleEditor)))

	editor.GET("/editor/accounts", mapsapi.ListEditorAccounts)
	editor.GET("/editor/folders", foldersapi.ListEditorFolders)
	editor.GET("/editor/contributions", contributionsapi.ListEditorContributions)

	editor.POST("/uploads/presign", contributionsapi.PresignUpload)
	editor.POST("/contributions", contributionsapi.CreateContribution)
	editor.POST("/contributions/:id/versions", contributionsapi.CreateVersion)
}
