package database

import (
	"fmt"
	"log"
	"os"

	"casahub_go_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto Migrate the schema
	err = DB.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.PaymentOrder{},
		&models.ToolCreditRequirement{},
		&models.ToolAttemptLog{},
		&models.Listing{},
		&models.PriceSuggestion{},
		&models.ListingDescription{},
		&models.AgentResume{},
	)
	if err != nil {
		log.Fatal("Failed to auto migrate:", err)
	}

	seedToolRequirements(DB)
}

// seedToolRequirements inserts the default per-tool credit costs. Existing
// rows are left alone, so operators can re-price or disable tools without the
// seed undoing it on restart.
func seedToolRequirements(db *gorm.DB) {
	defaults := []models.ToolCreditRequirement{
		{ToolName: "price-suggestion", Credits: 250, Description: "AI price suggestion for a listing", Enabled: true},
		{ToolName: "listing-description", Credits: 100, Description: "AI rewrite of a listing description", Enabled: true},
		{ToolName: "agent-resume", Credits: 150, Description: "AI generated agent resume with PDF export", Enabled: true},
	}

	for _, req := range defaults {
		req := req
		result := db.Where(models.ToolCreditRequirement{ToolName: req.ToolName}).FirstOrCreate(&req)
		if result.Error != nil {
			log.Printf("Failed to seed tool requirement %s: %v", req.ToolName, result.Error)
		}
	}
}
