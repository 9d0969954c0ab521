package database

import (
	"fmt"
	"log"
	"os"

	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/contributions"
	"collab-app/internal/domain/folders"
	"collab-app/internal/domain/maps"
	"collab-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	// TranslateError lets the services catch unique-violation races as
	// gorm.ErrDuplicatedKey and retry as updates.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Fatal("❌ Failed to enable pgcrypto extension:", err)
	}

	if err := DB.AutoMigrate(
		// identity
		&users.User{},

		// linked platform accounts
		&accounts.Account{},

		// relationship graph
		&maps.CreatorEditorMap{},
		&maps.AccountEditorMap{},

		// organization
		&folders.Folder{},

		// contribution workflow
		&contributions.Contribution{},
		&contributions.ContributionVersion{},
		&contributions.VersionComment{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
