// Package tenant resolves the current gym context for a principal and, for
// sysadmins only, exposes the full gym catalog with live updates and an
// explicit view-switch operation.
package tenant

import (
	"context"
	"errors"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/jwtutil"
	"fitpro-server/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver determines the current gym for a user.
type Resolver struct {
	db  *gorm.DB
	hub *hub
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, hub: newHub()}
}

// Resolve returns the user's current gym. A missing or inactive gym yields a
// nil gym with no error: dependent screens render a tenant-less empty state
// instead of failing.
func (r *Resolver) Resolve(ctx context.Context, user *model.User) (*model.Gym, error) {
	if user == nil || user.GymID == nil {
		return nil, nil
	}

	var gym model.Gym
	if err := r.db.WithContext(ctx).First(&gym, *user.GymID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Wrap(apperror.Unavailable, "gym lookup failed", err)
	}
	if !gym.Active {
		return nil, nil
	}
	return &gym, nil
}

// Catalog lists every gym. Sysadmin only.
func (r *Resolver) Catalog(ctx context.Context, user *model.User) ([]model.Gym, error) {
	if !rbac.CanManageGyms(user) {
		return nil, apperror.New(apperror.PermissionDenied, "sysadmin role required")
	}

	var gyms []model.Gym
	if err := r.db.WithContext(ctx).Order("name").Find(&gyms).Error; err != nil {
		return nil, apperror.Wrap(apperror.Unavailable, "gym listing failed", err)
	}
	return gyms, nil
}

// Watch subscribes to gym-catalog updates. Sysadmin only. The caller must
// invoke the returned unsubscribe when the consumer goes away or the
// subscribing principal changes; stale subscriptions leak context across
// sign-in cycles.
func (r *Resolver) Watch(user *model.User) (<-chan []model.Gym, func(), error) {
	if !rbac.CanManageGyms(user) {
		return nil, nil, apperror.New(apperror.PermissionDenied, "sysadmin role required")
	}
	ch, unsubscribe := r.hub.subscribe()
	return ch, unsubscribe, nil
}

// NotifyChanged pushes a fresh catalog snapshot to all watchers. Gym
// handlers call it after every gym mutation.
func (r *Resolver) NotifyChanged(ctx context.Context) {
	var gyms []model.Gym
	if err := r.db.WithContext(ctx).Order("name").Find(&gyms).Error; err != nil {
		logger.FromContext(ctx).Error("Failed to load gym catalog for watchers", zap.Error(err))
		return
	}
	r.hub.broadcast(gyms)
}

// Switch issues a new token viewing the target gym. Sysadmin only. The
// user's stored gym binding is never touched: switching changes what the
// sysadmin is looking at, not what any account is bound to. Permanent
// reassignment is the separate user-gym update operation.
func (r *Resolver) Switch(ctx context.Context, user *model.User, gymID uint) (string, *model.Gym, error) {
	if !rbac.CanManageGyms(user) {
		return "", nil, apperror.New(apperror.PermissionDenied, "sysadmin role required")
	}

	var gym model.Gym
	if err := r.db.WithContext(ctx).First(&gym, gymID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperror.New(apperror.NotFound, "gym not found")
		}
		return "", nil, apperror.Wrap(apperror.Unavailable, "gym lookup failed", err)
	}

	token, err := jwtutil.GenerateTokenWithGym(user.Email, user.ID, user.Role, &gym.ID, gym.Name)
	if err != nil {
		return "", nil, apperror.Wrap(apperror.Unavailable, "token generation failed", err)
	}

	logger.FromContext(ctx).Info("Sysadmin switched gym view",
		zap.Uint("user_id", user.ID),
		zap.Uint("gym_id", gym.ID),
		zap.String("gym_name", gym.Name))

	return token, &gym, nil
}
