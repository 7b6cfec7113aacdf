package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is the marketplace entity AI tool outputs attach to. Only the
// attributes the prompt templates consume are modeled here.
type Listing struct {
	gorm.Model
	UserID       uuid.UUID `gorm:"type:uuid;index"`
	Title        string
	PropertyType string
	City         string
	Bedrooms     int
	Bathrooms    int
	AreaSqm      float64
	PriceCents   int64
	Description  string
}

// PriceSuggestion is the persisted output of the price-suggestion tool.
type PriceSuggestion struct {
	gorm.Model
	UserID         uuid.UUID `gorm:"type:uuid;index"`
	ListingID      *uint     `gorm:"index"`
	SuggestedPrice int64
	MinPrice       int64
	MaxPrice       int64
	Rationale      string
	CreditsCharged int64
}

// ListingDescription is the persisted output of the listing-description tool.
type ListingDescription struct {
	gorm.Model
	UserID         uuid.UUID `gorm:"type:uuid;index"`
	ListingID      *uint     `gorm:"index"`
	Content        string
	Tone           string
	CreditsCharged int64
}

// AgentResume is the persisted output of the agent-resume tool. The rendered
// PDF is stored in cloud storage under PDFObjectName.
type AgentResume struct {
	gorm.Model
	UserID         uuid.UUID `gorm:"type:uuid;index"`
	FullName       string
	Content        string
	PDFObjectName  string
	CreditsCharged int64
}
