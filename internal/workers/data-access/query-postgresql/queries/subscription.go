// internal/workers/data-access/query-postgresql/queries/subscription.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func Subscription(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := stringParam(params, "userId")
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: userId", ErrMissingParam)
	}

	start := time.Now()

	var (
		id, tier  string
		expiresAt sql.NullString
		isValid   bool
	)
	err := db.QueryRowContext(ctx, `
		SELECT user_id, tier, expires_at, is_valid
		FROM user_subscriptions
		WHERE user_id = $1`, userID).Scan(&id, &tier, &expiresAt, &isValid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, 0, fmt.Errorf("%w: subscription for %s", ErrNotFound, userID)
		}
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"userId":    id,
		"tier":      tier,
		"expiresAt": expiresAt.String,
		"isValid":   isValid,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}
