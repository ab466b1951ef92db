package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workboard/internal/metrics"
	"workboard/internal/util"
	"workboard/pkg/domain"
	"workboard/pkg/store"
)

// Part listing cap.
const maxPartList = 300

// PartInput is the writable subset of a part.
type PartInput struct {
	ProjectID      string           `json:"project_id"`
	Title          string           `json:"title"`
	AssignedUserID string           `json:"assigned_user_id,omitempty"`
	Deadline       *time.Time       `json:"deadline,omitempty"`
	Checklist      []map[string]any `json:"checklist,omitempty"`
	Files          []map[string]any `json:"files,omitempty"`
	Subtasks       []map[string]any `json:"subtasks,omitempty"`
	TimeTracking   []map[string]any `json:"time_tracking,omitempty"`
}

// PartQuery filters ListParts. Empty fields are ignored.
type PartQuery struct {
	ProjectID string
	UserID    string
	Status    string
}

// CreatePart stores a new part in status assigned. When an assignee is given
// the capacity check runs first and a rejected part is never written.
func (a *App) CreatePart(ctx context.Context, in PartInput) (domain.Part, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	in.AssignedUserID = strings.TrimSpace(in.AssignedUserID)
	if in.ProjectID == "" {
		a.metrics.RecordPartCreated(metrics.OutcomeInvalid)
		return domain.Part{}, invalidf("project_id required")
	}
	if in.Title == "" {
		a.metrics.RecordPartCreated(metrics.OutcomeInvalid)
		return domain.Part{}, invalidf("title required")
	}
	if _, ok, err := a.store.GetProject(ctx, in.ProjectID); err != nil {
		a.metrics.RecordPartCreated(metrics.OutcomeError)
		return domain.Part{}, fmt.Errorf("load project %s: %w", in.ProjectID, err)
	} else if !ok {
		a.metrics.RecordPartCreated(metrics.OutcomeNotFound)
		return domain.Part{}, ErrProjectNotFound
	}
	if in.AssignedUserID != "" {
		if err := a.checkCapacity(ctx, in.AssignedUserID); err != nil {
			a.metrics.RecordPartCreated(outcomeOf(err))
			a.logRejected(ctx, "create_part", in.AssignedUserID, err)
			return domain.Part{}, err
		}
	}

	now := a.now()
	part := domain.Part{
		ID:             util.NewID(),
		ProjectID:      in.ProjectID,
		Title:          in.Title,
		AssignedUserID: in.AssignedUserID,
		Deadline:       utcTime(in.Deadline),
		Status:         domain.PartAssigned,
		Stage:          string(domain.PartAssigned),
		Checklist:      emptyIfNil(in.Checklist),
		Files:          emptyIfNil(in.Files),
		Subtasks:       emptyIfNil(in.Subtasks),
		TimeTracking:   emptyIfNil(in.TimeTracking),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.store.CreatePart(ctx, part); err != nil {
		a.metrics.RecordPartCreated(metrics.OutcomeError)
		return domain.Part{}, fmt.Errorf("save part: %w", err)
	}
	a.metrics.RecordPartCreated(metrics.OutcomeOK)
	if _, err := a.RecomputeProgress(ctx, part.ProjectID); err != nil {
		return part, err
	}
	return part, nil
}

// AssignPart moves a part to userID and resets it to assigned. The target's
// current load includes the part itself when it is already theirs.
func (a *App) AssignPart(ctx context.Context, partID, userID string) error {
	partID = strings.TrimSpace(partID)
	userID = strings.TrimSpace(userID)
	if err := a.checkCapacity(ctx, userID); err != nil {
		a.metrics.RecordAssignment(outcomeOf(err))
		a.logRejected(ctx, "assign_part", userID, err)
		return err
	}
	ok, err := a.store.AssignPart(ctx, partID, userID, a.now())
	if err != nil {
		a.metrics.RecordAssignment(metrics.OutcomeError)
		return fmt.Errorf("assign part %s: %w", partID, err)
	}
	if !ok {
		a.metrics.RecordAssignment(metrics.OutcomeNotFound)
		return ErrPartNotFound
	}
	a.metrics.RecordAssignment(metrics.OutcomeOK)
	util.LoggerFromContext(ctx).Info("part assigned", "part_id", partID, "user_id", userID)

	if err := a.recomputeForPart(ctx, partID); err != nil {
		return err
	}
	_, err = a.CreateNotification(ctx, NotificationInput{
		UserID: userID,
		Type:   string(domain.NotifyAssignment),
		Title:  "New assignment",
		Body:   "You were assigned to part " + partID,
	})
	return err
}

// SetPartStatus applies any of the five statuses; transitions are unrestricted.
func (a *App) SetPartStatus(ctx context.Context, partID string, status domain.PartStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(status))
	}
	ok, err := a.store.SetPartStatus(ctx, partID, status, a.now())
	if err != nil {
		return fmt.Errorf("set part %s status: %w", partID, err)
	}
	if !ok {
		return ErrPartNotFound
	}
	a.metrics.RecordStatusChange(string(status))
	util.LoggerFromContext(ctx).Info("part status changed", "part_id", partID, "status", string(status))
	return a.recomputeForPart(ctx, partID)
}

// GetPart returns a part by ID.
func (a *App) GetPart(ctx context.Context, id string) (domain.Part, error) {
	part, ok, err := a.store.GetPart(ctx, id)
	if err != nil {
		return domain.Part{}, fmt.Errorf("load part %s: %w", id, err)
	}
	if !ok {
		return domain.Part{}, ErrPartNotFound
	}
	return part, nil
}

// ListParts returns up to 300 parts matching q in store order.
func (a *App) ListParts(ctx context.Context, q PartQuery) ([]domain.Part, error) {
	f := store.PartFilter{
		ProjectID:      strings.TrimSpace(q.ProjectID),
		AssignedUserID: strings.TrimSpace(q.UserID),
		Limit:          maxPartList,
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		f.Statuses = []domain.PartStatus{domain.PartStatus(s)}
	}
	parts, err := a.store.ListParts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

// recomputeForPart refreshes the progress of the project owning partID.
// A part that vanished after its update is skipped.
func (a *App) recomputeForPart(ctx context.Context, partID string) error {
	part, ok, err := a.store.GetPart(ctx, partID)
	if err != nil {
		return fmt.Errorf("reload part %s: %w", partID, err)
	}
	if !ok {
		return nil
	}
	_, err = a.RecomputeProgress(ctx, part.ProjectID)
	return err
}

func (a *App) logRejected(ctx context.Context, op, userID string, err error) {
	util.LoggerFromContext(ctx).Warn("assignment rejected", "op", op, "user_id", userID, "err", err)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return metrics.OutcomeCapacityExceeded
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func emptyIfNil(v []map[string]any) []map[string]any {
	if v == nil {
		return []map[string]any{}
	}
	return v
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
