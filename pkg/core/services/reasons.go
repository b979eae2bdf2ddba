package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// ReasonStore defines the database operations for the deferral reason list.
type ReasonStore interface {
	ListActiveDeferralReasons(ctx context.Context) ([]model.DeferralReason, error)
	CreateDeferralReason(ctx context.Context, reason *model.DeferralReason) error
}

// ListDeferralReasons lists the active deferral reasons, ordered by code.
func ListDeferralReasons(ctx context.Context, store ReasonStore) ([]model.DeferralReason, error) {
	reasons, err := store.ListActiveDeferralReasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deferral reasons: %w", err)
	}
	return reasons, nil
}

// CreateDeferralReason adds a reason to the curated list. Manager-class roles
// only.
func CreateDeferralReason(ctx context.Context, store ReasonStore, logger *zap.Logger, actor *model.UserProfile, code, title string) (*model.DeferralReason, error) {
	if !scope.IsManager(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not manage deferral reasons", model.ErrForbidden, actor.Role)
	}
	code = strings.TrimSpace(code)
	title = strings.TrimSpace(title)
	if code == "" || title == "" {
		return nil, fmt.Errorf("%w: code and title are required", model.ErrValidation)
	}

	reason := &model.DeferralReason{Code: code, Title: title, IsActive: true}
	if err := store.CreateDeferralReason(ctx, reason); err != nil {
		return nil, fmt.Errorf("failed to create deferral reason %s: %w", code, err)
	}

	logger.Info("Deferral reason created", zap.String("code", code), zap.String("by", actor.UID))

	return reason, nil
}
