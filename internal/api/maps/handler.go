package maps

import (
	"errors"
	"net/http"

	"collab-app/database"
	"collab-app/internal/apperr"
	"collab-app/internal/domain/maps"
	"collab-app/internal/domain/users"
	mapsvc "collab-app/internal/service/maps"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func svc() *mapsvc.Service {
	return mapsvc.NewService(database.DB)
}

func fail(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
}

// ------------------------------
// GET /editors/lookup?email=...  (creator)
// ------------------------------
func LookupEditor(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
		return
	}

	result, err := svc().FindCreatorEditorMap(c.Request.Context(), c.GetString("user_id"), email)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ------------------------------
// POST /editors/request  (creator)
// ------------------------------
func RequestEditor(c *gin.Context) {
	var req struct {
		EditorID string `json:"editor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := svc().RequestEditor(c.Request.Context(), c.GetString("user_id"), req.EditorID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// ------------------------------
// PUT /maps/:id/status  (either party: editor accepts, creator revokes)
// ------------------------------
func UpdateMapStatus(c *gin.Context) {
	mapID := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := maps.ParseStatus(req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	// only the two parties may move the relationship
	userID := c.GetString("user_id")
	var m maps.CreatorEditorMap
	if err := database.DB.First(&m, "id = ?", mapID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Relationship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load relationship"})
		return
	}
	if m.CreatorID != userID && m.EditorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	updated, err := svc().UpdateCreatorEditorStatus(c.Request.Context(), mapID, status)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ------------------------------
// GET /maps  (role-switched listing with counterpart profile)
// ------------------------------
func ListMaps(c *gin.Context) {
	userID := c.GetString("user_id")

	var (
		rows []maps.CreatorEditorMap
		err  error
	)
	if users.Role(c.GetString("role")) == users.RoleCreator {
		rows, err = svc().FindMapsByCreator(c.Request.Context(), userID)
	} else {
		rows, err = svc().FindMapsByEditor(c.Request.Context(), userID)
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"maps": rows})
}

// ------------------------------
// GET /accounts/:id/editors  (creator)
// ------------------------------
func ListAccountEditors(c *gin.Context) {
	grants, err := svc().FindAccountEditors(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"editors": grants})
}

// ------------------------------
// GET /editor/accounts  (editor)
// ------------------------------
func ListEditorAccounts(c *gin.Context) {
	grants, err := svc().FindAccountsByEditor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": grants})
}

// ------------------------------
// PUT /accounts/:id/editors/:editorId  (creator grant/revoke)
// ------------------------------
func ChangeAccountEditorStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := maps.ParseStatus(req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	grant, err := svc().ChangeAccountEditorStatus(
		c.Request.Context(),
		c.GetString("user_id"),
		c.Param("id"),
		c.Param("editorId"),
		status,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}
