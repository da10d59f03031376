package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"campusdesk-be/access"
	"campusdesk-be/errs"
	"campusdesk-be/models"
	"campusdesk-be/store"

	"go.uber.org/zap"
)

// ImageRemover deletes a stored issue image by its public URL.
type ImageRemover interface {
	Remove(url string) error
}

// Recorder receives lifecycle events for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	IssueSubmitted(category models.IssueCategory)
	IssueResolved()
}

type nopRecorder struct{}

func (nopRecorder) IssueSubmitted(models.IssueCategory) {}
func (nopRecorder) IssueResolved()                      {}

// IssueService runs the issue lifecycle: submission, listing, triage,
// edits and removal.
type IssueService struct {
	issues   store.IssueStore
	users    store.UserStore
	images   ImageRemover
	recorder Recorder
	log      *zap.Logger
}

func NewIssueService(issues store.IssueStore, users store.UserStore, images ImageRemover, recorder Recorder, log *zap.Logger) *IssueService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &IssueService{issues: issues, users: users, images: images, recorder: recorder, log: log}
}

type SubmitInput struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Category    models.IssueCategory `json:"category" validate:"required,oneof=infrastructure academics hostel"`
	ImageURL    string               `json:"-"`
	Lat         *float64             `json:"-"`
	Lng         *float64             `json:"-"`
}

type EditInput struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Category    models.IssueCategory `json:"category" validate:"required,oneof=infrastructure academics hostel"`
}

// StatusChange carries the optional fields of a triage update.
type StatusChange struct {
	Status   *models.IssueStatus
	Notified *bool
}

type Page struct {
	Issues     []models.Issue `json:"issues"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// location keeps a coordinate pair only when both halves are usable.
func location(lat, lng *float64) *models.Location {
	if !finite(lat) || !finite(lng) {
		return nil
	}
	return &models.Location{Lat: *lat, Lng: *lng}
}

// Submit records a new pending issue owned by the caller.
func (s *IssueService) Submit(ctx context.Context, id access.Identity, in SubmitInput) (*models.Issue, error) {
	if _, err := access.Authorize(id, access.CreateIssue); err != nil {
		return nil, err
	}
	studentID, err := callerID(id.UserID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return nil, err
	}

	if _, err := s.users.ByID(ctx, studentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound("User not found")
		}
		return nil, errs.Store("Failed to load user", err)
	}

	issue := &models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		StudentID:   studentID,
		Status:      models.Pending,
		Notified:    false,
		Location:    location(in.Lat, in.Lng),
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, errs.Store("Failed to create issue", err)
	}

	s.recorder.IssueSubmitted(issue.Category)
	s.log.Info("issue submitted",
		zap.String("issueID", issue.ID.Hex()),
		zap.String("studentID", id.UserID),
		zap.String("category", string(issue.Category)),
	)
	return issue, nil
}

// scoped narrows f to the caller's own issues when their scope requires it.
func scoped(id access.Identity, scope access.Scope, f store.IssueFilter) (store.IssueFilter, error) {
	if scope != access.ScopeOwn {
		return f, nil
	}
	owner, err := callerID(id.UserID)
	if err != nil {
		return f, err
	}
	f.StudentID = &owner
	return f, nil
}

// target resolves rawID to a write filter for an issue the caller may act on.
// Students get NotFound for issues they do not own; their filter also carries
// the owner.
func (s *IssueService) target(ctx context.Context, id access.Identity, action access.Action, scope access.Scope, rawID string) (store.IssueFilter, error) {
	oid, err := issueID(rawID)
	if err != nil {
		return store.IssueFilter{}, err
	}
	filter := store.IssueFilter{ID: &oid}

	current, err := s.issues.FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return filter, errs.NotFound("Issue not found or unauthorized")
	}
	if err != nil {
		return filter, errs.Store("Failed to load issue", err)
	}
	if err := access.CheckOwnership(id, action, current.StudentID.Hex()); err != nil {
		return filter, err
	}
	return scoped(id, scope, filter)
}

// List returns one page of the issues visible to the caller, newest first.
// Pages outside 1..TotalPages are empty.
func (s *IssueService) List(ctx context.Context, id access.Identity, page, limit int) (*Page, error) {
	scope, err := access.Authorize(id, access.ListIssues)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, errs.Validation("limit must be positive")
	}
	filter, err := scoped(id, scope, store.IssueFilter{})
	if err != nil {
		return nil, err
	}

	total, err := s.issues.Count(ctx, filter)
	if err != nil {
		return nil, errs.Store("Failed to count issues", err)
	}
	result := &Page{
		Issues:     []models.Issue{},
		Total:      total,
		Page:       page,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	if page < 1 || page > result.TotalPages {
		return result, nil
	}

	items, err := s.issues.Find(ctx, filter, int64(page-1)*int64(limit), int64(limit))
	if err != nil {
		return nil, errs.Store("Failed to retrieve issues", err)
	}
	result.Issues = items
	return result, nil
}

// SetStatus applies an admin triage update. Resolving resets notified so the
// owner is told again, unless the same change sets notified explicitly.
func (s *IssueService) SetStatus(ctx context.Context, id access.Identity, rawID string, ch StatusChange) (*models.Issue, error) {
	if _, err := access.Authorize(id, access.SetStatus); err != nil {
		return nil, err
	}
	oid, err := issueID(rawID)
	if err != nil {
		return nil, err
	}
	if ch.Status != nil && *ch.Status == "" {
		ch.Status = nil
	}
	if ch.Status != nil && !ch.Status.Valid() {
		return nil, errs.Validation("Invalid status")
	}

	update := store.IssueUpdate{Status: ch.Status}
	resolving := ch.Status != nil && *ch.Status == models.Resolved
	if resolving {
		reset := false
		update.Notified = &reset
	}
	if ch.Notified != nil {
		update.Notified = ch.Notified
	}

	issue, err := s.issues.Update(ctx, store.IssueFilter{ID: &oid}, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound("Issue not found")
		}
		return nil, errs.Store("Failed to update issue", err)
	}

	if resolving {
		s.recorder.IssueResolved()
		s.log.Info("issue resolved", zap.String("issueID", rawID), zap.String("adminID", id.UserID))
	}
	return issue, nil
}

// Edit replaces the title, description and category of an issue the caller
// may edit. Ownership and triage fields are untouched.
func (s *IssueService) Edit(ctx context.Context, id access.Identity, rawID string, in EditInput) (*models.Issue, error) {
	scope, err := access.Authorize(id, access.EditIssue)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return nil, err
	}

	filter, err := s.target(ctx, id, access.EditIssue, scope, rawID)
	if err != nil {
		return nil, err
	}

	issue, err := s.issues.Update(ctx, filter, store.IssueUpdate{
		Title:       &in.Title,
		Description: &in.Description,
		Category:    &in.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound("Issue not found or unauthorized")
		}
		return nil, errs.Store("Failed to update issue", err)
	}
	return issue, nil
}

// Remove permanently deletes an issue the caller may delete, then removes its
// uploaded image on a best-effort basis.
func (s *IssueService) Remove(ctx context.Context, id access.Identity, rawID string) error {
	scope, err := access.Authorize(id, access.DeleteIssue)
	if err != nil {
		return err
	}
	filter, err := s.target(ctx, id, access.DeleteIssue, scope, rawID)
	if err != nil {
		return err
	}

	issue, err := s.issues.Delete(ctx, filter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NotFound("Issue not found or unauthorized")
		}
		return errs.Store("Failed to delete issue", err)
	}

	if issue.ImageURL != "" && s.images != nil {
		if err := s.images.Remove(issue.ImageURL); err != nil {
			s.log.Warn("failed to remove issue image", zap.String("issueID", rawID), zap.Error(err))
		}
	}
	s.log.Info("issue deleted", zap.String("issueID", rawID), zap.String("by", id.UserID))
	return nil
}
