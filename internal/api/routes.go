package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"casahub_go_backend/internal/auth"
	apperrors "casahub_go_backend/internal/errors"
	"casahub_go_backend/internal/models"
	"casahub_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
)

func SetupRoutes(
	r *gin.Engine,
	toolService *services.ToolInvocationService,
	creditService *services.DefaultCreditService,
	walletService services.WalletLedger,
	billingService *services.BillingService,
	stripeService *services.StripeService,
	userService *services.UserService,
	resumeService *services.AgentResumeService,
) {
	api := r.Group("/api")
	{
		api.GET("/tools", auth.AuthMiddleware(userService), listToolsHandler(creditService, walletService))
		api.POST("/tools/:tool_name/invoke", auth.AuthMiddleware(userService), invokeToolHandler(toolService))
		api.GET("/tools/attempts", auth.AuthMiddleware(userService), listAttemptsHandler(creditService))
		api.GET("/tools/resumes/:id/pdf", auth.AuthMiddleware(userService), downloadResumeHandler(resumeService))
		api.DELETE("/tools/resumes/:id", auth.AuthMiddleware(userService), deleteResumeHandler(resumeService))
		api.GET("/wallet", auth.AuthMiddleware(userService), getWalletHandler(walletService))
		api.GET("/wallet/packages", listPackagesHandler())
		api.POST("/wallet/purchase", auth.AuthMiddleware(userService), purchaseCreditsHandler(billingService))
		api.POST("/stripe/webhook", stripeWebhookHandler(stripeService, billingService))
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return nil, false
	}
	userModel, ok := user.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast user to *models.User"})
		return nil, false
	}
	return userModel, true
}

// listToolsHandler serves the data the client gate renders from: every tool's
// cost, enablement and the caller's gate decision. Read-only; nothing is
// logged. A client with stale data still hits the server-side check on
// invocation.
func listToolsHandler(creditService *services.DefaultCreditService, walletService services.WalletLedger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		balance, err := walletService.Balance(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		reqs, err := creditService.ListRequirements()
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		tools := make([]gin.H, 0, len(reqs))
		for i := range reqs {
			req := reqs[i]
			tools = append(tools, gin.H{
				"tool_name":   req.ToolName,
				"credits":     req.Credits,
				"description": req.Description,
				"enabled":     req.Enabled,
				"gate":        services.EvaluateGate(&req, balance),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"balance": balance,
			"tools":   tools,
		})
	}
}

func invokeToolHandler(toolService *services.ToolInvocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		toolName := c.Param("tool_name")

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Failed to read request body"))
			return
		}
		if len(payload) == 0 {
			payload = []byte("{}")
		}

		result, err := toolService.Invoke(c.Request.Context(), user, toolName, json.RawMessage(payload))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUnknownTool):
				apperrors.HandleError(c, apperrors.New404Error("Unknown tool"))
			case errors.Is(err, services.ErrToolDisabled):
				apperrors.HandleError(c, apperrors.New403Error("Tool is currently disabled"))
			case errors.Is(err, services.ErrInsufficientCredits):
				apperrors.HandleError(c, apperrors.NewInsufficientCreditsError())
			case errors.Is(err, services.ErrInvalidToolPayload):
				apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			case errors.Is(err, services.ErrGenerationFailed):
				apperrors.HandleError(c, apperrors.NewUpstreamError(err))
			default:
				apperrors.HandleError(c, apperrors.New500Error(err))
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"result":       result.Result,
			"credits_used": result.CreditsUsed,
		})
	}
}

func listAttemptsHandler(creditService *services.DefaultCreditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		attempts, err := creditService.AttemptsByUser(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		history := make([]gin.H, 0, len(attempts))
		for _, attempt := range attempts {
			history = append(history, gin.H{
				"tool_name":        attempt.ToolName,
				"allowed":          attempt.Allowed,
				"credits_required": attempt.CreditsRequired,
				"reason":           attempt.Reason,
				"created_at":       attempt.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{"attempts": history})
	}
}

func resumeIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.HandleError(c, apperrors.New400Error("Invalid resume id"))
		return 0, false
	}
	return uint(id), true
}

func downloadResumeHandler(resumeService *services.AgentResumeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := resumeIDParam(c)
		if !ok {
			return
		}

		data, err := resumeService.ResumePDF(c.Request.Context(), user.ID, id)
		if err != nil {
			if errors.Is(err, services.ErrResumeNotFound) {
				apperrors.HandleError(c, apperrors.New404Error("Resume not found"))
				return
			}
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		c.Data(http.StatusOK, "application/pdf", data)
	}
}

func deleteResumeHandler(resumeService *services.AgentResumeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := resumeIDParam(c)
		if !ok {
			return
		}

		if err := resumeService.DeleteResume(c.Request.Context(), user.ID, id); err != nil {
			if errors.Is(err, services.ErrResumeNotFound) {
				apperrors.HandleError(c, apperrors.New404Error("Resume not found"))
				return
			}
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

func getWalletHandler(walletService services.WalletLedger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		balance, err := walletService.Balance(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		txns, err := walletService.Transactions(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		history := make([]gin.H, 0, len(txns))
		for _, txn := range txns {
			history = append(history, gin.H{
				"type":        txn.Type,
				"amount":      txn.Amount,
				"description": txn.Description,
				"status":      txn.Status,
				"created_at":  txn.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"balance":      balance,
			"transactions": history,
		})
	}
}

func listPackagesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		packages := make([]services.CreditPackage, 0, len(services.DefaultCreditPackages))
		for _, pkg := range services.DefaultCreditPackages {
			packages = append(packages, pkg)
		}
		c.JSON(http.StatusOK, gin.H{"packages": packages})
	}
}

func purchaseCreditsHandler(billingService *services.BillingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var request struct {
			Package string `json:"package" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		pkg, known := services.DefaultCreditPackages[request.Package]
		if !known {
			apperrors.HandleError(c, apperrors.New400Error("Unknown credit package"))
			return
		}

		sessionID, err := billingService.StartPurchase(user.ID, pkg)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
	}
}

func stripeWebhookHandler(stripeService *services.StripeService, billingService *services.BillingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const MaxBodyBytes = int64(65536)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
			return
		}

		signatureHeader := c.GetHeader("Stripe-Signature")
		event, err := stripeService.HandleWebhook(payload, signatureHeader)
		if err != nil {
			log.Warn().Err(err).Msg("Webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify webhook signature"})
			return
		}

		switch event.Type {
		case "checkout.session.completed":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse checkout session"})
				return
			}

			if err := billingService.HandleCheckoutCompleted(c.Request.Context(), session); err != nil {
				switch {
				case errors.Is(err, services.ErrUnknownCheckoutSession):
					// Sessions from other products on the same Stripe account
					// land here too. Acknowledge so Stripe stops retrying.
					log.Info().Str("session", session.ID).Msg("Ignoring checkout session with no matching order")
				case errors.Is(err, services.ErrOrderAmountMismatch):
					log.Warn().Err(err).Str("session", session.ID).Msg("Rejected checkout event")
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				default:
					log.Error().Err(err).Str("session", session.ID).Msg("Failed to process checkout event")
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process checkout session"})
					return
				}
			}

		default:
			log.Info().Str("type", string(event.Type)).Msg("Unhandled webhook event type")
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
