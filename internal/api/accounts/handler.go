package accounts

import (
	"net/http"

	"collab-app/database"
	"collab-app/internal/domain/accounts"

	"github.com/gin-gonic/gin"
)

// GET /accounts — the creator's linked channels
func ListAccounts(c *gin.Context) {
	creatorID := c.GetString("user_id")

	var rows []accounts.Account
	if err := database.DB.Where("creator_id = ?", creatorID).Order("created_at ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load accounts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": rows})
}

// DELETE /accounts/:id — disconnect; the row stays so grants and contributions
// keep their history.
func DisconnectAccount(c *gin.Context) {
	creatorID := c.GetString("user_id")
	accountID := c.Param("id")

	res := database.DB.Model(&accounts.Account{}).
		Where("id = ? AND creator_id = ?", accountID, creatorID).
		Update("status", accounts.AccountDisconnected)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect account"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}
