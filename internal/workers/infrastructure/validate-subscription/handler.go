// internal/workers/infrastructure/validate-subscription/handler.go
package validatesubscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cerrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "validate-subscription"
)

var (
	ErrSubscriptionInvalid     = errors.New("SUBSCRIPTION_INVALID")
	ErrSubscriptionExpired     = errors.New("SUBSCRIPTION_EXPIRED")
	ErrSubscriptionCheckFailed = errors.New("SUBSCRIPTION_CHECK_FAILED")
)

// aiTiers lists the billing tiers that unlock narrative generation. Lower
// tiers still receive the deterministic slate.
var aiTiers = map[string]bool{
	"premium":    true,
	"enterprise": true,
}

var knownTiers = map[string]bool{
	"free": true, "basic": true, "premium": true, "enterprise": true,
}

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	errs   *cerrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		errs:   cerrors.NewErrorHandler(scoped),
		logger: scoped,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(ctx, client, job, classifyError(err))
		return
	}

	h.completeJob(client, job, output)
}

// classifyError maps execute sentinels onto the standard error taxonomy.
// Only database failures are retryable, rejected subscriptions are final.
func classifyError(err error) error {
	switch {
	case errors.Is(err, ErrSubscriptionInvalid):
		return cerrors.NewSubscriptionInvalidError(err.Error())
	case errors.Is(err, ErrSubscriptionExpired):
		return cerrors.NewSubscriptionExpiredError(err.Error())
	default:
		return cerrors.NewSubscriptionCheckFailedError(err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrSubscriptionInvalid)
	}

	cacheKey := "sub:" + input.UserID
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var sub Subscription
			if err := json.Unmarshal([]byte(val), &sub); err == nil {
				return h.buildOutput(&sub)
			}
		}
	}

	var sub Subscription
	query := `SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions WHERE user_id = $1`
	err := h.db.QueryRowContext(ctx, query, input.UserID).Scan(
		&sub.UserID, &sub.Tier, &sub.ExpiresAt, &sub.IsValid,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrSubscriptionCheckFailed, err)
	}

	output, err := h.buildOutput(&sub)
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		data, _ := json.Marshal(sub)
		if cacheErr := h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL).Err(); cacheErr != nil {
			h.logger.Warn("subscription cache write failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  cacheErr.Error(),
			})
		}
	}

	return output, nil
}

func (h *Handler) buildOutput(sub *Subscription) (*Output, error) {
	if !sub.IsValid {
		return nil, ErrSubscriptionInvalid
	}

	if sub.ExpiresAt != "" {
		exp, parseErr := time.Parse(time.RFC3339, sub.ExpiresAt)
		if parseErr != nil {
			h.logger.Debug("unparseable expiration date, skipping expiry check", map[string]interface{}{
				"userId":    sub.UserID,
				"expiresAt": sub.ExpiresAt,
			})
		} else if h.now().After(exp) {
			return nil, ErrSubscriptionExpired
		}
	}

	if !knownTiers[sub.Tier] {
		return nil, ErrSubscriptionInvalid
	}

	return &Output{
		IsValid:             true,
		TierLevel:           sub.Tier,
		AIGenerationEnabled: aiTiers[sub.Tier],
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
