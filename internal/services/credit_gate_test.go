package services

import (
	"testing"

	"casahub_go_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateGate(t *testing.T) {
	enabled := func(credits int64) *models.ToolCreditRequirement {
		return &models.ToolCreditRequirement{ToolName: "price-suggestion", Credits: credits, Enabled: true}
	}

	t.Run("unlocked when balance covers cost", func(t *testing.T) {
		decision := EvaluateGate(enabled(250), 250)
		assert.True(t, decision.Unlocked)
		assert.Empty(t, decision.Reason)
		assert.Zero(t, decision.Shortfall)

		decision = EvaluateGate(enabled(250), 10000)
		assert.True(t, decision.Unlocked)
	})

	t.Run("locked with shortfall when balance is short", func(t *testing.T) {
		decision := EvaluateGate(enabled(250), 100)
		assert.False(t, decision.Unlocked)
		assert.Equal(t, GateReasonInsufficient, decision.Reason)
		assert.Equal(t, int64(150), decision.Shortfall)
	})

	t.Run("disabled tool locks regardless of balance", func(t *testing.T) {
		req := enabled(250)
		req.Enabled = false
		decision := EvaluateGate(req, 10000)
		assert.False(t, decision.Unlocked)
		assert.Equal(t, GateReasonDisabled, decision.Reason)
		// No balance comparison happens, so no shortfall is reported.
		assert.Zero(t, decision.Shortfall)
	})

	t.Run("missing requirement fails closed", func(t *testing.T) {
		decision := EvaluateGate(nil, 10000)
		assert.False(t, decision.Unlocked)
		assert.Equal(t, GateReasonUnavailable, decision.Reason)
	})

	t.Run("zero-cost tool is unlocked at zero balance", func(t *testing.T) {
		decision := EvaluateGate(enabled(0), 0)
		assert.True(t, decision.Unlocked)
	})
}
