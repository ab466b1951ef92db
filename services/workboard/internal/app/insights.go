package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"workboard/pkg/domain"
	"workboard/pkg/store"
)

// deadlineWindow is how close a deadline must be to count as approaching.
const deadlineWindow = 48 * time.Hour

// SystemInsights scans every user and every active part.
//
// Overload here compares against the capacity stored on the user record with
// no role fallback, unlike Workload and UserInsights which resolve through the
// role. A user record without a capacity counts as 0 here and shows as
// overloaded with a single active part.
func (a *App) SystemInsights(ctx context.Context) (domain.SystemInsights, error) {
	start := time.Now()
	var (
		users  []domain.User
		active []domain.Part
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = a.store.ListUsers(gctx, 0)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		active, err = a.store.ListParts(gctx, store.PartFilter{Statuses: domain.ActiveStatuses})
		if err != nil {
			return fmt.Errorf("list active parts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.SystemInsights{}, err
	}

	now := a.now()
	byUser := make(map[string]int)
	approaching := make([]string, 0)
	for _, p := range active {
		if p.AssignedUserID != "" {
			byUser[p.AssignedUserID]++
		}
		if p.Deadline != nil && p.Status != domain.PartCompleted && p.Deadline.Sub(now) < deadlineWindow {
			approaching = append(approaching, p.ID)
		}
	}
	overloaded := make([]domain.OverloadedUser, 0)
	for _, u := range users {
		capacity := u.StoredCapacity()
		if n := byUser[u.ID]; n > capacity {
			overloaded = append(overloaded, domain.OverloadedUser{UserID: u.ID, Active: n, Capacity: capacity})
		}
	}

	a.metrics.ObserveInsight(string(domain.ScopeSystem), time.Since(start).Seconds())
	return domain.SystemInsights{
		Summary: fmt.Sprintf("Active parts: %d. Approaching deadlines: %d. Overloaded users: %d.",
			len(active), len(approaching), len(overloaded)),
		Overloaded:  overloaded,
		Approaching: approaching,
	}, nil
}

// UserInsights reports resolved capacity, active load, trend and a count of
// the user's parts for every status.
func (a *App) UserInsights(ctx context.Context, userID string) (domain.UserInsights, error) {
	start := time.Now()
	capacity, err := a.ResolveCapacity(ctx, userID)
	if err != nil {
		return domain.UserInsights{}, err
	}
	active, err := a.ActiveCount(ctx, userID)
	if err != nil {
		return domain.UserInsights{}, err
	}
	parts, err := a.store.ListParts(ctx, store.PartFilter{AssignedUserID: userID})
	if err != nil {
		return domain.UserInsights{}, fmt.Errorf("list parts of %s: %w", userID, err)
	}
	status := make(map[domain.PartStatus]int, len(domain.PartStatuses))
	for _, s := range domain.PartStatuses {
		status[s] = 0
	}
	for _, p := range parts {
		if _, known := status[p.Status]; known {
			status[p.Status]++
		}
	}
	trend := domain.TrendBalanced
	if active > capacity {
		trend = domain.TrendOverloaded
	}
	a.metrics.ObserveInsight(string(domain.ScopeUser), time.Since(start).Seconds())
	return domain.UserInsights{Capacity: capacity, Active: active, Trend: trend, Status: status}, nil
}
