package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"casahub_go_backend/internal/models"
	"casahub_go_backend/internal/utils/pdfrender"

	"github.com/google/uuid"
)

// NewToolRegistry builds the descriptors for every marketplace AI tool.
// Adding a tool means adding a descriptor here plus a requirement row; the
// control flow in ToolInvocationService stays untouched.
func NewToolRegistry() map[string]ToolDescriptor {
	return map[string]ToolDescriptor{
		"price-suggestion":    priceSuggestionDescriptor(),
		"listing-description": listingDescriptionDescriptor(),
		"agent-resume":        agentResumeDescriptor(),
	}
}

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// stripJSONFence removes a markdown code fence the model sometimes wraps
// structured output in.
func stripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

//
// price-suggestion
//

type priceSuggestionInput struct {
	ListingID    *uint   `json:"listing_id"`
	PropertyType string  `json:"property_type"`
	City         string  `json:"city"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	AreaSqm      float64 `json:"area_sqm"`
	Condition    string  `json:"condition"`
}

type priceSuggestionOutput struct {
	SuggestedPrice int64  `json:"suggested_price"`
	MinPrice       int64  `json:"min_price"`
	MaxPrice       int64  `json:"max_price"`
	Rationale      string `json:"rationale"`
}

func priceSuggestionDescriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:            "price-suggestion",
		MaxOutputTokens: 512,
		BuildPrompt: func(payload json.RawMessage) (string, error) {
			var in priceSuggestionInput
			if err := decodeStrict(payload, &in); err != nil {
				return "", err
			}
			if in.PropertyType == "" || in.City == "" {
				return "", fmt.Errorf("property_type and city are required")
			}
			if in.AreaSqm <= 0 {
				return "", fmt.Errorf("area_sqm must be positive")
			}
			condition := in.Condition
			if condition == "" {
				condition = "unknown"
			}
			return fmt.Sprintf(
				"You are a real-estate pricing analyst. Suggest an asking price for this property:\n"+
					"Type: %s\nCity: %s\nBedrooms: %d\nBathrooms: %d\nArea: %.1f sqm\nCondition: %s\n\n"+
					"Respond with ONLY a JSON object with integer fields suggested_price, min_price, max_price "+
					"(whole currency units) and a string field rationale (max 3 sentences).",
				in.PropertyType, in.City, in.Bedrooms, in.Bathrooms, in.AreaSqm, condition,
			), nil
		},
		HandleOutput: func(ctx context.Context, tc ToolContext, user *models.User, payload json.RawMessage, raw string, charged int64) (interface{}, error) {
			var out priceSuggestionOutput
			if err := decodeStrict([]byte(stripJSONFence(raw)), &out); err != nil {
				return nil, fmt.Errorf("unparseable price suggestion: %w", err)
			}
			if out.SuggestedPrice <= 0 || out.MinPrice > out.MaxPrice {
				return nil, fmt.Errorf("implausible price suggestion")
			}

			var in priceSuggestionInput
			_ = decodeStrict(payload, &in) // validated by BuildPrompt

			record := models.PriceSuggestion{
				UserID:         user.ID,
				ListingID:      in.ListingID,
				SuggestedPrice: out.SuggestedPrice,
				MinPrice:       out.MinPrice,
				MaxPrice:       out.MaxPrice,
				Rationale:      out.Rationale,
				CreditsCharged: charged,
			}
			if err := tc.Tx.Create(&record).Error; err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"suggestion_id":   record.ID,
				"suggested_price": out.SuggestedPrice,
				"min_price":       out.MinPrice,
				"max_price":       out.MaxPrice,
				"rationale":       out.Rationale,
			}, nil
		},
	}
}

//
// listing-description
//

type listingDescriptionInput struct {
	ListingID  *uint    `json:"listing_id"`
	Title      string   `json:"title"`
	City       string   `json:"city"`
	Highlights []string `json:"highlights"`
	Tone       string   `json:"tone"`
}

func listingDescriptionDescriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:            "listing-description",
		MaxOutputTokens: 768,
		BuildPrompt: func(payload json.RawMessage) (string, error) {
			var in listingDescriptionInput
			if err := decodeStrict(payload, &in); err != nil {
				return "", err
			}
			if in.Title == "" {
				return "", fmt.Errorf("title is required")
			}
			tone := in.Tone
			if tone == "" {
				tone = "professional"
			}
			return fmt.Sprintf(
				"Write a %s marketing description for a property listing.\n"+
					"Title: %s\nCity: %s\nHighlights: %s\n\n"+
					"Respond with the description text only, two to three short paragraphs, no headings.",
				tone, in.Title, in.City, strings.Join(in.Highlights, "; "),
			), nil
		},
		HandleOutput: func(ctx context.Context, tc ToolContext, user *models.User, payload json.RawMessage, raw string, charged int64) (interface{}, error) {
			content := strings.TrimSpace(raw)
			if content == "" {
				return nil, fmt.Errorf("empty description returned")
			}

			var in listingDescriptionInput
			_ = decodeStrict(payload, &in)
			tone := in.Tone
			if tone == "" {
				tone = "professional"
			}

			record := models.ListingDescription{
				UserID:         user.ID,
				ListingID:      in.ListingID,
				Content:        content,
				Tone:           tone,
				CreditsCharged: charged,
			}
			if err := tc.Tx.Create(&record).Error; err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"description_id": record.ID,
				"description":    content,
			}, nil
		},
	}
}

//
// agent-resume
//

type agentResumeInput struct {
	FullName        string   `json:"full_name"`
	City            string   `json:"city"`
	YearsExperience int      `json:"years_experience"`
	Specialties     []string `json:"specialties"`
}

func agentResumeDescriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:            "agent-resume",
		MaxOutputTokens: 1024,
		BuildPrompt: func(payload json.RawMessage) (string, error) {
			var in agentResumeInput
			if err := decodeStrict(payload, &in); err != nil {
				return "", err
			}
			if in.FullName == "" {
				return "", fmt.Errorf("full_name is required")
			}
			return fmt.Sprintf(
				"Write a professional resume profile for a real-estate agent.\n"+
					"Name: %s\nCity: %s\nYears of experience: %d\nSpecialties: %s\n\n"+
					"Respond with plain text: a summary paragraph followed by bullet-style lines for "+
					"specialties and notable strengths. No markdown syntax.",
				in.FullName, in.City, in.YearsExperience, strings.Join(in.Specialties, "; "),
			), nil
		},
		HandleOutput: func(ctx context.Context, tc ToolContext, user *models.User, payload json.RawMessage, raw string, charged int64) (interface{}, error) {
			content := strings.TrimSpace(raw)
			if content == "" {
				return nil, fmt.Errorf("empty resume returned")
			}

			var in agentResumeInput
			_ = decodeStrict(payload, &in)

			pdfBytes, err := pdfrender.RenderResume(in.FullName, content)
			if err != nil {
				return nil, fmt.Errorf("failed to render resume PDF: %w", err)
			}

			objectName := fmt.Sprintf("resumes/%s/%s.pdf", user.ID.String(), uuid.NewString())
			if err := tc.Storage.UploadFile(ctx, tc.Bucket, objectName, bytes.NewReader(pdfBytes)); err != nil {
				return nil, fmt.Errorf("failed to store resume PDF: %w", err)
			}

			record := models.AgentResume{
				UserID:         user.ID,
				FullName:       in.FullName,
				Content:        content,
				PDFObjectName:  objectName,
				CreditsCharged: charged,
			}
			if err := tc.Tx.Create(&record).Error; err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"resume_id":  record.ID,
				"resume":     content,
				"pdf_object": objectName,
			}, nil
		},
	}
}
