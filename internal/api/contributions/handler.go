package contributions

import (
	"net/http"
	"time"

	"collab-app/database"
	"collab-app/internal/apperr"
	"collab-app/internal/domain/contributions"
	contribsvc "collab-app/internal/service/contributions"
	"collab-app/internal/storage"

	"github.com/gin-gonic/gin"
)

const presignLifetime = 15 * time.Minute

func svc() *contribsvc.Service {
	return contribsvc.NewService(database.DB)
}

func fail(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
}

// ------------------------------
// POST /uploads/presign  (editor) — direct-to-bucket upload URL
// ------------------------------
func PresignUpload(c *gin.Context) {
	var req struct {
		AccountID   string `json:"account_id" binding:"required"`
		FileName    string `json:"file_name" binding:"required"`
		ContentType string `json:"content_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := svc().AuthorizeUpload(c.Request.Context(), c.GetString("user_id"), req.AccountID); err != nil {
		fail(c, err)
		return
	}

	key := storage.NewMediaKey(req.AccountID, req.FileName)
	url, err := storage.Media.PresignUpload(c.Request.Context(), key, req.ContentType, presignLifetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to presign upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

// ------------------------------
// POST /contributions  (editor)
// ------------------------------
func CreateContribution(c *gin.Context) {
	var req struct {
		AccountID    string   `json:"account_id" binding:"required"`
		FolderID     *string  `json:"folder_id"`
		Title        string   `json:"title" binding:"required"`
		Description  string   `json:"description"`
		Tags         []string `json:"tags"`
		Duration     int      `json:"duration"`
		VideoKey     string   `json:"video_key" binding:"required"`
		ThumbnailKey string   `json:"thumbnail_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contribution, err := svc().CreateContribution(c.Request.Context(), c.GetString("user_id"), contribsvc.CreateContributionInput{
		AccountID:    req.AccountID,
		FolderID:     req.FolderID,
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		Duration:     req.Duration,
		VideoKey:     req.VideoKey,
		ThumbnailKey: req.ThumbnailKey,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, contribution)
}

// ------------------------------
// POST /contributions/:id/versions  (editor)
// ------------------------------
func CreateVersion(c *gin.Context) {
	var req struct {
		Title        string   `json:"title" binding:"required"`
		Description  string   `json:"description"`
		Tags         []string `json:"tags"`
		Duration     int      `json:"duration"`
		VideoKey     string   `json:"video_key" binding:"required"`
		ThumbnailKey string   `json:"thumbnail_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := svc().CreateVersion(c.Request.Context(), c.GetString("user_id"), c.Param("id"), contribsvc.CreateVersionInput{
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		Duration:     req.Duration,
		VideoKey:     req.VideoKey,
		ThumbnailKey: req.ThumbnailKey,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

// ------------------------------
// GET /contributions/:id/versions
// ------------------------------
func ListVersions(c *gin.Context) {
	rows, err := svc().ListVersions(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": rows})
}

// ------------------------------
// PUT /versions/:id/status  (creator review)
// ------------------------------
func UpdateVersionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := contributions.ParseStatus(req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	version, err := svc().UpdateVersionStatus(c.Request.Context(), c.GetString("user_id"), c.Param("id"), status)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// ------------------------------
// POST /versions/:id/comments
// ------------------------------
func CreateComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := svc().CreateVersionComment(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ------------------------------
// GET /versions/:id/comments
// ------------------------------
func ListComments(c *gin.Context) {
	rows, err := svc().ListComments(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": rows})
}

// ------------------------------
// GET /versions/:id/media — short-lived playback URL for review
// ------------------------------
func GetVersionMedia(c *gin.Context) {
	v, err := svc().FindVersionForParty(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	url, err := storage.Media.PresignDownload(c.Request.Context(), v.VideoKey, presignLifetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to presign download"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int(presignLifetime.Seconds())})
}

// ------------------------------
// GET /accounts/:id/contributions  (creator review queue)
// ------------------------------
func ListAccountContributions(c *gin.Context) {
	rows, err := svc().ListByAccount(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributions": rows})
}

// ------------------------------
// GET /editor/contributions  (editor's own uploads)
// ------------------------------
func ListEditorContributions(c *gin.Context) {
	rows, err := svc().ListByEditor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributions": rows})
}
