// Package store persists users and issues.
//
// Two backends implement the interfaces: MongoDB for deployments and an
// in-memory one for local runs and tests.
package store

import (
	"context"
	"errors"
	"time"

	"campusdesk-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// IssueFilter selects issues. Nil fields match everything.
type IssueFilter struct {
	ID        *primitive.ObjectID
	StudentID *primitive.ObjectID
}

func (f IssueFilter) bson() bson.M {
	filter := bson.M{}
	if f.ID != nil {
		filter["_id"] = *f.ID
	}
	if f.StudentID != nil {
		filter["studentId"] = *f.StudentID
	}
	return filter
}

func (f IssueFilter) matches(issue *models.Issue) bool {
	if f.ID != nil && issue.ID != *f.ID {
		return false
	}
	if f.StudentID != nil && issue.StudentID != *f.StudentID {
		return false
	}
	return true
}

// IssueUpdate lists the mutable issue fields. Nil fields are left unchanged.
// studentId is not among them.
type IssueUpdate struct {
	Title       *string
	Description *string
	Category    *models.IssueCategory
	Status      *models.IssueStatus
	Notified    *bool
}

func (u IssueUpdate) set(now time.Time) bson.M {
	update := bson.M{"updatedAt": now}
	if u.Title != nil {
		update["title"] = *u.Title
	}
	if u.Description != nil {
		update["description"] = *u.Description
	}
	if u.Category != nil {
		update["category"] = *u.Category
	}
	if u.Status != nil {
		update["status"] = *u.Status
	}
	if u.Notified != nil {
		update["notified"] = *u.Notified
	}
	return update
}

func (u IssueUpdate) apply(issue *models.Issue, now time.Time) {
	if u.Title != nil {
		issue.Title = *u.Title
	}
	if u.Description != nil {
		issue.Description = *u.Description
	}
	if u.Category != nil {
		issue.Category = *u.Category
	}
	if u.Status != nil {
		issue.Status = *u.Status
	}
	if u.Notified != nil {
		issue.Notified = *u.Notified
	}
	issue.UpdatedAt = now
}

// Grouping fields accepted by IssueStore.CountBy.
const (
	GroupByCategory = "category"
	GroupByStatus   = "status"
)

type GroupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type MonthCount struct {
	Month int   `bson:"_id"`
	Count int64 `bson:"count"`
}

type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	// Find returns matching issues newest first. A limit of 0 returns all of them.
	Find(ctx context.Context, f IssueFilter, skip, limit int64) ([]models.Issue, error)
	FindOne(ctx context.Context, f IssueFilter) (*models.Issue, error)
	Count(ctx context.Context, f IssueFilter) (int64, error)
	// Update applies u to the single issue matching f and returns it after the update.
	Update(ctx context.Context, f IssueFilter, u IssueUpdate) (*models.Issue, error)
	// Delete removes the single issue matching f and returns what was removed.
	Delete(ctx context.Context, f IssueFilter) (*models.Issue, error)
	// MarkNotified sets notified on the given issues that are still resolved.
	MarkNotified(ctx context.Context, ids []primitive.ObjectID) error
	// CountBy groups all issues by field, ascending by key.
	CountBy(ctx context.Context, field string) ([]GroupCount, error)
	// CountByMonth groups all issues by the calendar month of createdAt, ascending.
	CountByMonth(ctx context.Context) ([]MonthCount, error)
}

// Pinger reports backend reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
