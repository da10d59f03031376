package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"campusdesk-be/access"
	"campusdesk-be/errs"
	"campusdesk-be/models"
	"campusdesk-be/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type removedImages struct {
	urls []string
	err  error
}

func (r *removedImages) Remove(url string) error {
	r.urls = append(r.urls, url)
	return r.err
}

type countingRecorder struct {
	submitted map[models.IssueCategory]int
	resolved  int
}

func (c *countingRecorder) IssueSubmitted(cat models.IssueCategory) {
	if c.submitted == nil {
		c.submitted = map[models.IssueCategory]int{}
	}
	c.submitted[cat]++
}

func (c *countingRecorder) IssueResolved() { c.resolved++ }

func float(v float64) *float64 { return &v }

func submit(t *testing.T, f *fixture, id access.Identity, title string, cat models.IssueCategory) *models.Issue {
	t.Helper()
	issue, err := f.issueSvc.Submit(context.Background(), id, SubmitInput{Title: title, Description: "details", Category: cat})
	require.NoError(t, err)
	return issue
}

func TestSubmitCreatesPendingIssue(t *testing.T) {
	f := newFixture(t)
	rec := &countingRecorder{}
	f.issueSvc = NewIssueService(f.issues, f.users, nil, rec, zap.NewNop())
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)

	issue, err := f.issueSvc.Submit(context.Background(), student, SubmitInput{
		Title:       "  Broken light ",
		Description: "Corridor B",
		Category:    models.Infrastructure,
		ImageURL:    "/uploads/1_a.png",
		Lat:         float(12.97),
		Lng:         float(77.59),
	})
	require.NoError(t, err)
	assert.Equal(t, "Broken light", issue.Title)
	assert.Equal(t, models.Pending, issue.Status)
	assert.False(t, issue.Notified)
	assert.Equal(t, student.UserID, issue.StudentID.Hex())
	assert.Equal(t, &models.Location{Lat: 12.97, Lng: 77.59}, issue.Location)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.Equal(t, 1, rec.submitted[models.Infrastructure])
}

func TestSubmitDropsPartialOrNonFiniteLocation(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)

	for _, in := range []SubmitInput{
		{Lat: float(12.9)},
		{Lng: float(77.5)},
		{Lat: float(math.NaN()), Lng: float(77.5)},
		{Lat: float(12.9), Lng: float(math.Inf(1))},
	} {
		in.Title, in.Description, in.Category = "t", "d", models.Hostel
		issue, err := f.issueSvc.Submit(context.Background(), student, in)
		require.NoError(t, err)
		assert.Nil(t, issue.Location)
	}
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)

	_, err := f.issueSvc.Submit(ctx, student, SubmitInput{Title: "t", Description: "d", Category: "parking"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.issueSvc.Submit(ctx, student, SubmitInput{Title: "   ", Description: "d", Category: models.Hostel})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.issueSvc.Submit(ctx, admin, SubmitInput{Title: "t", Description: "d", Category: models.Hostel})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.issueSvc.Submit(ctx, access.Identity{}, SubmitInput{Title: "t", Description: "d", Category: models.Hostel})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	ghost := access.Identity{UserID: primitive.NewObjectID().Hex(), Role: models.RoleStudent}
	_, err = f.issueSvc.Submit(ctx, ghost, SubmitInput{Title: "t", Description: "d", Category: models.Hostel})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	n, err := f.issues.Count(ctx, store.IssueFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListScopesStudentsAndPagesAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	b := f.register(t, "Ben", "ben@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)

	owner, _ := primitive.ObjectIDFromHex(a.UserID)
	other, _ := primitive.ObjectIDFromHex(b.UserID)
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var newest primitive.ObjectID
	for i := 0; i < 3; i++ {
		newest = f.issues.Insert(models.Issue{Title: "a", Category: models.Hostel, StudentID: owner, Status: models.Pending, CreatedAt: base.Add(time.Duration(i) * time.Minute)}).ID
	}
	for i := 0; i < 2; i++ {
		f.issues.Insert(models.Issue{Title: "b", Category: models.Academics, StudentID: other, Status: models.Pending, CreatedAt: base})
	}

	page, err := f.issueSvc.List(ctx, a, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Issues, 3)
	assert.Equal(t, newest, page.Issues[0].ID)
	for _, issue := range page.Issues {
		assert.Equal(t, owner, issue.StudentID)
	}

	page, err = f.issueSvc.List(ctx, admin, 3, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Issues, 1)

	page, err = f.issueSvc.List(ctx, admin, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Issues)
	assert.Equal(t, 3, page.TotalPages)

	page, err = f.issueSvc.List(ctx, admin, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Issues)

	_, err = f.issueSvc.List(ctx, admin, 1, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestListEmptyStore(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)

	page, err := f.issueSvc.List(context.Background(), student, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
	assert.NotNil(t, page.Issues)
	assert.Empty(t, page.Issues)
}

func TestSetStatusNotifiedPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &countingRecorder{}
	f.issueSvc = NewIssueService(f.issues, f.users, nil, rec, zap.NewNop())
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)
	issue := submit(t, f, student, "Leak", models.Hostel)
	yes := true
	resolved := models.Resolved
	pending := models.Pending

	got, err := f.issueSvc.SetStatus(ctx, admin, issue.ID.Hex(), StatusChange{Notified: &yes})
	require.NoError(t, err)
	assert.True(t, got.Notified)
	assert.Equal(t, models.Pending, got.Status)

	got, err = f.issueSvc.SetStatus(ctx, admin, issue.ID.Hex(), StatusChange{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, got.Status)
	assert.False(t, got.Notified)
	assert.Equal(t, 1, rec.resolved)

	got, err = f.issueSvc.SetStatus(ctx, admin, issue.ID.Hex(), StatusChange{Status: &resolved, Notified: &yes})
	require.NoError(t, err)
	assert.True(t, got.Notified)

	got, err = f.issueSvc.SetStatus(ctx, admin, issue.ID.Hex(), StatusChange{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.Pending, got.Status)
	assert.True(t, got.Notified)
	assert.Equal(t, student.UserID, got.StudentID.Hex())
}

func TestSetStatusRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)
	issue := submit(t, f, student, "Leak", models.Hostel)
	resolved := models.Resolved
	closed := models.IssueStatus("closed")

	_, err := f.issueSvc.SetStatus(ctx, student, issue.ID.Hex(), StatusChange{Status: &resolved})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.issueSvc.SetStatus(ctx, admin, issue.ID.Hex(), StatusChange{Status: &closed})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.issueSvc.SetStatus(ctx, admin, primitive.NewObjectID().Hex(), StatusChange{Status: &resolved})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.issueSvc.SetStatus(ctx, admin, "garbage", StatusChange{Status: &resolved})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEditIsScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	b := f.register(t, "Ben", "ben@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)
	issue := submit(t, f, a, "Leak", models.Hostel)
	edit := EditInput{Title: "Big leak", Description: "Flooding", Category: models.Infrastructure}

	_, err := f.issueSvc.Edit(ctx, b, issue.ID.Hex(), edit)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, "Issue not found or unauthorized", errs.Message(err))

	unchanged, err := f.issues.FindOne(ctx, store.IssueFilter{ID: &issue.ID})
	require.NoError(t, err)
	assert.Equal(t, "Leak", unchanged.Title)

	got, err := f.issueSvc.Edit(ctx, a, issue.ID.Hex(), edit)
	require.NoError(t, err)
	assert.Equal(t, "Big leak", got.Title)
	assert.Equal(t, models.Infrastructure, got.Category)
	assert.Equal(t, models.Pending, got.Status)

	got, err = f.issueSvc.Edit(ctx, admin, issue.ID.Hex(), EditInput{Title: "x", Description: "y", Category: models.Academics})
	require.NoError(t, err)
	assert.Equal(t, a.UserID, got.StudentID.Hex())

	_, err = f.issueSvc.Edit(ctx, a, issue.ID.Hex(), EditInput{Title: "x", Description: "y", Category: "parking"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRemoveDeletesIssueAndImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	images := &removedImages{err: errors.New("disk gone")}
	f.issueSvc = NewIssueService(f.issues, f.users, images, nil, zap.NewNop())
	a := f.register(t, "Asha", "asha@campus.edu", models.RoleStudent)
	b := f.register(t, "Ben", "ben@campus.edu", models.RoleStudent)
	admin := f.register(t, "Dean", "dean@campus.edu", models.RoleAdmin)

	issue, err := f.issueSvc.Submit(ctx, a, SubmitInput{Title: "t", Description: "d", Category: models.Hostel, ImageURL: "/uploads/1_x.png"})
	require.NoError(t, err)

	err = f.issueSvc.Remove(ctx, b, issue.ID.Hex())
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, images.urls)

	// A failing image removal does not fail the delete.
	require.NoError(t, f.issueSvc.Remove(ctx, a, issue.ID.Hex()))
	assert.Equal(t, []string{"/uploads/1_x.png"}, images.urls)

	err = f.issueSvc.Remove(ctx, a, issue.ID.Hex())
	assert.ErrorIs(t, err, errs.ErrNotFound)

	other := submit(t, f, b, "Other", models.Academics)
	require.NoError(t, f.issueSvc.Remove(ctx, admin, other.ID.Hex()))
}
