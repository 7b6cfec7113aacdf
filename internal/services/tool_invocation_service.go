package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"casahub_go_backend/internal/broker"
	"casahub_go_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidToolPayload = errors.New("invalid tool payload")
	ErrGenerationFailed   = errors.New("generation failed")
)

// ToolContext is handed to a descriptor's output handler. Tx is the database
// transaction shared with the debit, so persisted output and the charge
// commit or roll back together.
type ToolContext struct {
	Tx      *gorm.DB
	Storage CloudStorageManager
	Bucket  string
}

// ToolDescriptor is everything that varies between priced AI tools. The
// invocation engine supplies the shared control flow: gate check, generation
// call, transactional persist-and-debit, attempt logging.
type ToolDescriptor struct {
	Name            string
	Model           string
	MaxOutputTokens int32
	// BuildPrompt validates the payload and composes the deterministic
	// prompt. Validation failures surface before any external call.
	BuildPrompt func(payload json.RawMessage) (string, error)
	// HandleOutput parses the raw generation output (strictly, for
	// structured tools), persists the tool-specific row and returns the
	// response body. Any error aborts the whole request before the debit.
	HandleOutput func(ctx context.Context, tc ToolContext, user *models.User, payload json.RawMessage, raw string, charged int64) (interface{}, error)
}

// TxRunner abstracts gorm transactions for testability.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type GormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) *GormTxRunner {
	return &GormTxRunner{db: db}
}

func (r *GormTxRunner) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type ToolInvocationResult struct {
	Result      interface{}
	CreditsUsed int64
}

// ToolInvocationService is the single authoritative code path for every
// priced AI tool. Per-tool behavior comes exclusively from descriptors.
type ToolInvocationService struct {
	registry          map[string]ToolDescriptor
	requirements      RequirementSource
	wallet            WalletLedger
	attempts          AttemptLogger
	generator         TextGenerator
	txRunner          TxRunner
	storage           CloudStorageManager
	bucket            string
	events            *broker.Broker
	defaultModel      string
	generationTimeout time.Duration
}

func NewToolInvocationService(
	registry map[string]ToolDescriptor,
	requirements RequirementSource,
	wallet WalletLedger,
	attempts AttemptLogger,
	generator TextGenerator,
	txRunner TxRunner,
	storage CloudStorageManager,
	bucket string,
	events *broker.Broker,
	defaultModel string,
	generationTimeout time.Duration,
) *ToolInvocationService {
	return &ToolInvocationService{
		registry:          registry,
		requirements:      requirements,
		wallet:            wallet,
		attempts:          attempts,
		generator:         generator,
		txRunner:          txRunner,
		storage:           storage,
		bucket:            bucket,
		events:            events,
		defaultModel:      defaultModel,
		generationTimeout: generationTimeout,
	}
}

// Invoke runs toolName for user. Exactly one attempt log row is written per
// call, whatever branch is taken. The wallet is only touched on the success
// path, inside the same transaction as the persisted output.
func (s *ToolInvocationService) Invoke(ctx context.Context, user *models.User, toolName string, payload json.RawMessage) (*ToolInvocationResult, error) {
	desc, registered := s.registry[toolName]
	if !registered {
		s.attempts.LogAttempt(user.ID, toolName, false, 0, GateReasonUnavailable)
		return nil, ErrUnknownTool
	}

	req, err := s.requirements.Requirement(toolName)
	if err != nil {
		// Missing or unreadable gating data fails closed.
		s.attempts.LogAttempt(user.ID, toolName, false, 0, GateReasonUnavailable)
		if errors.Is(err, ErrUnknownTool) {
			return nil, ErrUnknownTool
		}
		return nil, err
	}
	if !req.Enabled {
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, GateReasonDisabled)
		return nil, ErrToolDisabled
	}

	// Fresh server-side balance check; the client gate is advisory only.
	balance, err := s.wallet.Balance(user.ID)
	if err != nil {
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, "balance read failed")
		return nil, err
	}
	if balance < req.Credits {
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, GateReasonInsufficient)
		return nil, ErrInsufficientCredits
	}

	prompt, err := desc.BuildPrompt(payload)
	if err != nil {
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, "invalid payload: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolPayload, err)
	}

	genCtx := ctx
	if s.generationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.generationTimeout)
		defer cancel()
	}

	modelName := desc.Model
	if modelName == "" {
		modelName = s.defaultModel
	}

	raw, err := s.generator.GenerateText(genCtx, modelName, desc.MaxOutputTokens, prompt)
	if err != nil {
		// A failed generation never charges the user.
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, "generation failed: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var result interface{}
	err = s.txRunner.RunInTransaction(ctx, func(tx *gorm.DB) error {
		out, err := desc.HandleOutput(ctx, ToolContext{Tx: tx, Storage: s.storage, Bucket: s.bucket}, user, payload, raw, req.Credits)
		if err != nil {
			return err
		}
		// Debit last: if the balance was spent concurrently since the check
		// above, the conditional update fails and everything rolls back,
		// output row included.
		if _, err := s.wallet.DebitForToolTx(tx, user.ID, req.Credits, toolName); err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ErrInsufficientCredits) {
			reason = GateReasonInsufficient
		}
		s.attempts.LogAttempt(user.ID, toolName, false, req.Credits, reason)
		return nil, err
	}

	s.attempts.LogAttempt(user.ID, toolName, true, req.Credits, "success")

	if s.events != nil {
		s.events.Publish("wallet_update_"+user.ID.String(), map[string]interface{}{
			"type":    models.TransactionTypeDebit,
			"tool":    toolName,
			"credits": req.Credits,
		})
	}

	return &ToolInvocationResult{Result: result, CreditsUsed: req.Credits}, nil
}
