package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campusdesk-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserStore keeps users in process memory. Emails are unique.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]models.User
	byEmail map[string]primitive.ObjectID
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[primitive.ObjectID]models.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return ErrDuplicate
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	s.byID[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemoryUserStore) ByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryUserStore) ByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Delete removes a user. Only used to simulate external deletion.
func (s *MemoryUserStore) Delete(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}

// MemoryIssueStore keeps issues in process memory with the same ordering
// and grouping semantics as the Mongo store.
type MemoryIssueStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]models.Issue
	now    func() time.Time
}

func NewMemoryIssueStore() *MemoryIssueStore {
	return &MemoryIssueStore{
		issues: make(map[primitive.ObjectID]models.Issue),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores issue as given, keeping its timestamps. Used to seed data.
func (s *MemoryIssueStore) Insert(issue models.Issue) models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	s.issues[issue.ID] = issue
	return issue
}

func (s *MemoryIssueStore) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	now := s.now()
	issue.CreatedAt, issue.UpdatedAt = now, now
	s.issues[issue.ID] = *issue
	return nil
}

func (s *MemoryIssueStore) Find(_ context.Context, f IssueFilter, skip, limit int64) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(f)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	if skip >= int64(len(matched)) {
		return []models.Issue{}, nil
	}
	if skip > 0 {
		matched = matched[skip:]
	}
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryIssueStore) FindOne(_ context.Context, f IssueFilter) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.first(f)
	if !ok {
		return nil, ErrNotFound
	}
	return &issue, nil
}

func (s *MemoryIssueStore) Count(_ context.Context, f IssueFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(f))), nil
}

func (s *MemoryIssueStore) Update(_ context.Context, f IssueFilter, u IssueUpdate) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.first(f)
	if !ok {
		return nil, ErrNotFound
	}
	u.apply(&issue, s.now())
	s.issues[issue.ID] = issue
	return &issue, nil
}

func (s *MemoryIssueStore) Delete(_ context.Context, f IssueFilter) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.first(f)
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.issues, issue.ID)
	return &issue, nil
}

func (s *MemoryIssueStore) MarkNotified(_ context.Context, ids []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, id := range ids {
		issue, ok := s.issues[id]
		if !ok || issue.Status != models.Resolved {
			continue
		}
		issue.Notified = true
		issue.UpdatedAt = now
		s.issues[id] = issue
	}
	return nil
}

func (s *MemoryIssueStore) CountBy(_ context.Context, field string) ([]GroupCount, error) {
	var key func(models.Issue) string
	switch field {
	case GroupByCategory:
		key = func(i models.Issue) string { return string(i.Category) }
	case GroupByStatus:
		key = func(i models.Issue) string { return string(i.Status) }
	default:
		return nil, fmt.Errorf("store: cannot group issues by %q", field)
	}

	s.mu.RLock()
	counts := make(map[string]int64)
	for _, issue := range s.issues {
		counts[key(issue)]++
	}
	s.mu.RUnlock()

	rows := make([]GroupCount, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, GroupCount{Key: k, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return strings.Compare(rows[i].Key, rows[j].Key) < 0 })
	return rows, nil
}

func (s *MemoryIssueStore) CountByMonth(_ context.Context) ([]MonthCount, error) {
	s.mu.RLock()
	counts := make(map[int]int64)
	for _, issue := range s.issues {
		counts[int(issue.CreatedAt.UTC().Month())]++
	}
	s.mu.RUnlock()

	rows := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		rows = append(rows, MonthCount{Month: m, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows, nil
}

func (s *MemoryIssueStore) Ping(context.Context) error { return nil }

func (s *MemoryIssueStore) matching(f IssueFilter) []models.Issue {
	out := make([]models.Issue, 0)
	for _, issue := range s.issues {
		if f.matches(&issue) {
			out = append(out, issue)
		}
	}
	return out
}

func (s *MemoryIssueStore) first(f IssueFilter) (models.Issue, bool) {
	if f.ID != nil {
		issue, ok := s.issues[*f.ID]
		if !ok || !f.matches(&issue) {
			return models.Issue{}, false
		}
		return issue, true
	}
	for _, issue := range s.issues {
		if f.matches(&issue) {
			return issue, true
		}
	}
	return models.Issue{}, false
}
