package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupCodeLength is the number of digits in a group join code.
const GroupCodeLength = 6

// Group is a travel party for one train on one journey date.
// Members are loaded alongside the group and ordered by join time.
type Group struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Code        string        `json:"code"`
	CreatedBy   string        `json:"created_by"`
	TrainNumber string        `json:"train_number"`
	Route       string        `json:"route"`
	JourneyDate time.Time     `json:"journey_date"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	Members     []GroupMember `json:"members"`
}

// GroupMember is a member's seat assignment within a group.
// JoiningFromNextStation is true while the member has no coach or seat.
type GroupMember struct {
	UserID                 string    `json:"user_id"`
	UserName               string    `json:"user_name"`
	CoachNumber            string    `json:"coach_number"`
	SeatNumber             string    `json:"seat_number"`
	JoiningFromNextStation bool      `json:"joining_from_next_station"`
	JoinedAt               time.Time `json:"joined_at"`
}

// HasMember reports whether userID is in the member list.
func (g Group) HasMember(userID string) bool {
	_, ok := g.Member(userID)
	return ok
}

// Member returns the member entry for userID.
func (g Group) Member(userID string) (GroupMember, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return GroupMember{}, false
}

// MemberCoaches returns the distinct coach numbers occupied by members,
// in member order. Members without a coach are skipped.
func (g Group) MemberCoaches() []string {
	seen := make(map[string]bool, len(g.Members))
	var out []string
	for _, m := range g.Members {
		if m.CoachNumber == "" || seen[m.CoachNumber] {
			continue
		}
		seen[m.CoachNumber] = true
		out = append(out, m.CoachNumber)
	}
	return out
}
