package domain

// CoachType classifies a coach for seating and display purposes.
type CoachType string

const (
	CoachSleeper    CoachType = "sleeper"
	CoachAC         CoachType = "ac"
	CoachGeneral    CoachType = "general"
	CoachFirstClass CoachType = "firstClass"
)

// Train is immutable reference data keyed by its public train number.
type Train struct {
	Number  string  `json:"train_number"`
	Name    string  `json:"train_name"`
	Route   string  `json:"route"`
	Coaches []Coach `json:"coaches"`
}

// Coach is one carriage of a train. PlatformPosition is the distance in
// meters from the start of the platform where the coach stops.
type Coach struct {
	Type             CoachType `json:"coach_type"`
	Number           string    `json:"coach_number"`
	TotalSeats       int       `json:"total_seats"`
	PlatformPosition float64   `json:"platform_position"`
}

// Coach returns the coach with the given number, if the train has one.
func (t Train) Coach(number string) (Coach, bool) {
	for _, c := range t.Coaches {
		if c.Number == number {
			return c, true
		}
	}
	return Coach{}, false
}
