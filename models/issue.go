package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Infrastructure IssueCategory = "infrastructure"
	Academics      IssueCategory = "academics"
	Hostel         IssueCategory = "hostel"
)

// Categories lists every accepted category value.
var Categories = []IssueCategory{Infrastructure, Academics, Hostel}

// Valid reports whether c is one of the closed category values.
func (c IssueCategory) Valid() bool {
	switch c {
	case Infrastructure, Academics, Hostel:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending  IssueStatus = "pending"
	Resolved IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	return s == Pending || s == Resolved
}

// Location is a geographic point attached to an issue. It is stored only
// when both coordinates are known.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Issue represents a campus problem reported by a student
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    IssueCategory      `bson:"category" json:"category"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	StudentID   primitive.ObjectID `bson:"studentId" json:"studentId"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Notified    bool               `bson:"notified" json:"notified"`
	Location    *Location          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PendingNotice reports whether the owner still has to be told about the
// issue's resolution.
func (i *Issue) PendingNotice() bool {
	return i.Status == Resolved && !i.Notified
}
