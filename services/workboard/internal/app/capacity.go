package app

import (
	"context"
	"fmt"

	"workboard/pkg/domain"
	"workboard/pkg/store"
)

// ResolveCapacity returns the user's explicit capacity, else the role's
// max capacity, else 0.
func (a *App) ResolveCapacity(ctx context.Context, userID string) (int, error) {
	user, ok, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !ok {
		return 0, ErrUserNotFound
	}
	if user.Capacity != nil {
		return *user.Capacity, nil
	}
	role, ok, err := a.store.GetRole(ctx, user.Role)
	if err != nil {
		return 0, fmt.Errorf("load role %s: %w", user.Role, err)
	}
	if ok && role.MaxCapacity != nil {
		return *role.MaxCapacity, nil
	}
	return 0, nil
}

// ActiveCount counts the user's parts in assigned, in_progress or review.
// The user is not required to exist.
func (a *App) ActiveCount(ctx context.Context, userID string) (int, error) {
	n, err := a.store.CountParts(ctx, store.PartFilter{
		AssignedUserID: userID,
		Statuses:       domain.ActiveStatuses,
	})
	if err != nil {
		return 0, fmt.Errorf("count active parts for %s: %w", userID, err)
	}
	return n, nil
}

// Workload reports capacity, active load and remaining headroom.
func (a *App) Workload(ctx context.Context, userID string) (domain.Workload, error) {
	capacity, err := a.ResolveCapacity(ctx, userID)
	if err != nil {
		return domain.Workload{}, err
	}
	active, err := a.ActiveCount(ctx, userID)
	if err != nil {
		return domain.Workload{}, err
	}
	return domain.Workload{
		Capacity:  capacity,
		Active:    active,
		Available: max(capacity-active, 0),
	}, nil
}

// checkCapacity rejects the assignment when the user is at or over capacity.
// Nothing is reserved, so concurrent callers can both pass.
func (a *App) checkCapacity(ctx context.Context, userID string) error {
	capacity, err := a.ResolveCapacity(ctx, userID)
	if err != nil {
		return err
	}
	active, err := a.ActiveCount(ctx, userID)
	if err != nil {
		return err
	}
	if active >= capacity {
		return fmt.Errorf("%w: %d active of %d", ErrCapacityExceeded, active, capacity)
	}
	return nil
}
