// Package platform computes where a train's coaches stop along a platform,
// as drawing geometry the client renders directly.
package platform

import (
	"math"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// Canvas and coach box dimensions, in drawing units.
const (
	CanvasWidth  = 800
	CanvasHeight = 200
	CoachWidth   = 70
	CoachHeight  = 60
	CoachY       = (CanvasHeight - CoachHeight) / 2

	marginX     = 50
	drawableLen = CanvasWidth - 2*marginX
)

// Coach fill colours.
const (
	ColorSelected = "#3b82f6"
	ColorMember   = "#10b981"
	ColorAC       = "#60a5fa"
	ColorSleeper  = "#34d399"
	ColorGeneral  = "#9ca3af"
)

// MarkerKind names a platform landmark.
type MarkerKind string

const (
	MarkerEntrance  MarkerKind = "entrance"
	MarkerStairs    MarkerKind = "stairs"
	MarkerLift      MarkerKind = "lift"
	MarkerFoodStall MarkerKind = "foodStall"
	MarkerExit      MarkerKind = "exit"
)

// Layout is the full drawing of one train on the platform.
type Layout struct {
	TrainNumber string     `json:"train_number"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Scale       float64    `json:"scale"`
	Coaches     []CoachBox `json:"coaches"`
	Markers     []Marker   `json:"markers"`

	// SelectedDistance is the selected coach's position in whole meters from
	// the entrance. Nil when no coach is selected.
	SelectedDistance *int `json:"selected_distance_m,omitempty"`
}

// CoachBox is one coach's rectangle.
type CoachBox struct {
	Number    string           `json:"coach_number"`
	Type      domain.CoachType `json:"coach_type"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	Color     string           `json:"color"`
	Selected  bool             `json:"selected"`
	HasMember bool             `json:"has_member"`

	// MemberName labels a non-selected coach with the first group member
	// travelling in it.
	MemberName string `json:"member_name,omitempty"`
}

// Marker is a landmark at a fixed fraction of the platform.
type Marker struct {
	Kind  MarkerKind `json:"type"`
	Label string     `json:"label"`
	X     float64    `json:"x"`
}

var markerStops = []struct {
	kind     MarkerKind
	label    string
	fraction float64
}{
	{MarkerEntrance, "Entrance", 0},
	{MarkerStairs, "Stairs", 0.3},
	{MarkerLift, "Lift", 0.5},
	{MarkerFoodStall, "Food", 0.7},
	{MarkerExit, "Exit", 1},
}

// Compute lays out train. selected is the viewer's coach number and may be
// empty. members are the group members whose coaches are highlighted.
func Compute(train domain.Train, selected string, members []domain.GroupMember) Layout {
	maxPos := 0.0
	for _, c := range train.Coaches {
		maxPos = math.Max(maxPos, c.PlatformPosition)
	}
	div := maxPos
	if div == 0 {
		div = 1
	}
	scale := drawableLen / div

	memberIn := make(map[string]string, len(members))
	for _, m := range members {
		if m.CoachNumber == "" {
			continue
		}
		if _, seen := memberIn[m.CoachNumber]; !seen {
			memberIn[m.CoachNumber] = m.UserName
		}
	}

	l := Layout{
		TrainNumber: train.Number,
		Width:       CanvasWidth,
		Height:      CanvasHeight,
		Scale:       scale,
		Coaches:     make([]CoachBox, 0, len(train.Coaches)),
		Markers:     make([]Marker, 0, len(markerStops)),
	}

	for _, c := range train.Coaches {
		name, hasMember := memberIn[c.Number]
		box := CoachBox{
			Number:    c.Number,
			Type:      c.Type,
			X:         marginX + c.PlatformPosition*scale,
			Y:         CoachY,
			Width:     CoachWidth,
			Height:    CoachHeight,
			Selected:  selected != "" && c.Number == selected,
			HasMember: hasMember,
		}
		box.Color = coachColor(c.Type, box.Selected, hasMember)
		if hasMember && !box.Selected {
			box.MemberName = name
		}
		if box.Selected {
			d := int(math.Round(c.PlatformPosition))
			l.SelectedDistance = &d
		}
		l.Coaches = append(l.Coaches, box)
	}

	for _, s := range markerStops {
		l.Markers = append(l.Markers, Marker{
			Kind:  s.kind,
			Label: s.label,
			X:     marginX + maxPos*s.fraction*scale,
		})
	}
	return l
}

func coachColor(t domain.CoachType, selected, hasMember bool) string {
	switch {
	case selected:
		return ColorSelected
	case hasMember:
		return ColorMember
	}
	switch t {
	case domain.CoachAC, domain.CoachFirstClass:
		return ColorAC
	case domain.CoachSleeper:
		return ColorSleeper
	default:
		return ColorGeneral
	}
}
