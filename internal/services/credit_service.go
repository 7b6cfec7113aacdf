package services

import (
	"errors"

	"casahub_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrToolDisabled = errors.New("tool disabled")
)

// RequirementSource exposes the per-tool credit requirement table.
type RequirementSource interface {
	Requirement(toolName string) (*models.ToolCreditRequirement, error)
	ListRequirements() ([]models.ToolCreditRequirement, error)
}

// AttemptLogger records gating outcomes. Logging is best effort: a failed
// write must never block or fail the surrounding flow.
type AttemptLogger interface {
	LogAttempt(userID uuid.UUID, toolName string, allowed bool, creditsRequired int64, reason string)
	AttemptsByUser(userID uuid.UUID) ([]models.ToolAttemptLog, error)
}

// GateDecision is the pure outcome of a credit gate evaluation. The client
// renders the locked/unlocked state from it; the server re-evaluates before
// any charge.
type GateDecision struct {
	Unlocked  bool   `json:"unlocked"`
	Reason    string `json:"reason,omitempty"`
	Shortfall int64  `json:"shortfall,omitempty"`
}

const (
	GateReasonDisabled     = "tool disabled"
	GateReasonUnavailable  = "tool unavailable"
	GateReasonInsufficient = "insufficient credits"
)

// EvaluateGate decides whether a tool is usable with the given balance. It
// has no side effects. A nil requirement locks the gate: missing or stale
// gating data fails closed, never open. A disabled tool locks unconditionally
// before any balance comparison.
func EvaluateGate(req *models.ToolCreditRequirement, balance int64) GateDecision {
	if req == nil {
		return GateDecision{Unlocked: false, Reason: GateReasonUnavailable}
	}
	if !req.Enabled {
		return GateDecision{Unlocked: false, Reason: GateReasonDisabled}
	}
	if balance < req.Credits {
		return GateDecision{
			Unlocked:  false,
			Reason:    GateReasonInsufficient,
			Shortfall: req.Credits - balance,
		}
	}
	return GateDecision{Unlocked: true}
}

type DefaultCreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *DefaultCreditService {
	return &DefaultCreditService{db: db}
}

func (s *DefaultCreditService) Requirement(toolName string) (*models.ToolCreditRequirement, error) {
	var req models.ToolCreditRequirement
	err := s.db.Where("tool_name = ?", toolName).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTool
		}
		return nil, err
	}
	return &req, nil
}

func (s *DefaultCreditService) ListRequirements() ([]models.ToolCreditRequirement, error) {
	var reqs []models.ToolCreditRequirement
	result := s.db.Order("tool_name asc").Find(&reqs)
	if result.Error != nil {
		return nil, result.Error
	}
	return reqs, nil
}

func (s *DefaultCreditService) LogAttempt(userID uuid.UUID, toolName string, allowed bool, creditsRequired int64, reason string) {
	entry := models.ToolAttemptLog{
		UserID:          userID,
		ToolName:        toolName,
		Allowed:         allowed,
		CreditsRequired: creditsRequired,
		Reason:          reason,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Warn().
			Err(err).
			Str("tool", toolName).
			Str("userID", userID.String()).
			Msg("Failed to write tool attempt log")
	}
}

func (s *DefaultCreditService) AttemptsByUser(userID uuid.UUID) ([]models.ToolAttemptLog, error) {
	var attempts []models.ToolAttemptLog
	result := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&attempts)
	if result.Error != nil {
		return nil, result.Error
	}
	return attempts, nil
}
