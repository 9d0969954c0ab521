package folders

import (
	"net/http"

	"collab-app/database"
	"collab-app/internal/apperr"
	foldersvc "collab-app/internal/service/folders"

	"github.com/gin-gonic/gin"
)

func svc() *foldersvc.Service {
	return foldersvc.NewService(database.DB)
}

func fail(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
}

// ------------------------------
// POST /folders  (creator)
// ------------------------------
func CreateFolder(c *gin.Context) {
	var req struct {
		AccountID string  `json:"account_id" binding:"required"`
		Name      string  `json:"name" binding:"required"`
		EditorID  *string `json:"editor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := svc().Create(c.Request.Context(), c.GetString("user_id"), foldersvc.CreateInput{
		AccountID: req.AccountID,
		Name:      req.Name,
		EditorID:  req.EditorID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

// ------------------------------
// GET /accounts/:id/folders  (creator)
// ------------------------------
func ListAccountFolders(c *gin.Context) {
	rows, err := svc().ListByAccount(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": rows})
}

// ------------------------------
// GET /editor/folders  (editor)
// ------------------------------
func ListEditorFolders(c *gin.Context) {
	rows, err := svc().ListByEditor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": rows})
}

// ------------------------------
// PUT /folders/:id  (creator: rename and/or reassign editor)
// ------------------------------
func UpdateFolder(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		EditorID *string `json:"editor_id"`
		// distinguishes "clear the editor" from "leave it alone"
		ClearEditor bool `json:"clear_editor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creatorID := c.GetString("user_id")
	folderID := c.Param("id")
	ctx := c.Request.Context()

	if req.Name != nil {
		if _, err := svc().Rename(ctx, creatorID, folderID, *req.Name); err != nil {
			fail(c, err)
			return
		}
	}

	if req.EditorID != nil || req.ClearEditor {
		if _, err := svc().AssignEditor(ctx, creatorID, folderID, req.EditorID); err != nil {
			fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ------------------------------
// DELETE /folders/:id  (creator)
// ------------------------------
func DeleteFolder(c *gin.Context) {
	if err := svc().Delete(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
