package services

import (
	"context"

	"campusdesk-be/access"
	"campusdesk-be/errs"
	"campusdesk-be/models"
	"campusdesk-be/store"
)

type CategoryCount struct {
	Category models.IssueCategory `json:"category"`
	Count    int64                `json:"count"`
}

type StatusCount struct {
	Status models.IssueStatus `json:"status"`
	Count  int64              `json:"count"`
}

// MonthCount buckets issues by calendar month (1-12) of creation. Years are
// not distinguished.
type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type Stats struct {
	CategoryStats []CategoryCount `json:"categoryStats"`
	StatusStats   []StatusCount   `json:"statusStats"`
	MonthlyStats  []MonthCount    `json:"monthlyStats"`
}

// AnalyticsService computes admin-only breakdowns over every issue.
type AnalyticsService struct {
	issues store.IssueStore
}

func NewAnalyticsService(issues store.IssueStore) *AnalyticsService {
	return &AnalyticsService{issues: issues}
}

func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, id access.Identity) ([]CategoryCount, error) {
	if _, err := access.Authorize(id, access.ViewStats); err != nil {
		return nil, err
	}
	rows, err := s.issues.CountBy(ctx, store.GroupByCategory)
	if err != nil {
		return nil, errs.Store("Failed to get category analytics", err)
	}
	out := make([]CategoryCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryCount{Category: models.IssueCategory(r.Key), Count: r.Count})
	}
	return out, nil
}

func (s *AnalyticsService) StatusBreakdown(ctx context.Context, id access.Identity) ([]StatusCount, error) {
	if _, err := access.Authorize(id, access.ViewStats); err != nil {
		return nil, err
	}
	rows, err := s.issues.CountBy(ctx, store.GroupByStatus)
	if err != nil {
		return nil, errs.Store("Failed to get status analytics", err)
	}
	out := make([]StatusCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, StatusCount{Status: models.IssueStatus(r.Key), Count: r.Count})
	}
	return out, nil
}

func (s *AnalyticsService) MonthlyTrend(ctx context.Context, id access.Identity) ([]MonthCount, error) {
	if _, err := access.Authorize(id, access.ViewStats); err != nil {
		return nil, err
	}
	rows, err := s.issues.CountByMonth(ctx)
	if err != nil {
		return nil, errs.Store("Failed to get monthly analytics", err)
	}
	out := make([]MonthCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthCount{Month: r.Month, Count: r.Count})
	}
	return out, nil
}

// Stats bundles the three breakdowns.
func (s *AnalyticsService) Stats(ctx context.Context, id access.Identity) (*Stats, error) {
	categories, err := s.CategoryBreakdown(ctx, id)
	if err != nil {
		return nil, err
	}
	statuses, err := s.StatusBreakdown(ctx, id)
	if err != nil {
		return nil, err
	}
	months, err := s.MonthlyTrend(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Stats{CategoryStats: categories, StatusStats: statuses, MonthlyStats: months}, nil
}
