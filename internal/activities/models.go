// internal/activities/models.go
package activities

import "time"

// Activity is one extracurricular offering. Name is the registry key and is
// not part of the JSON body.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Clone returns a copy that shares no memory with a.
func (a Activity) Clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	a.Participants = participants
	return a
}

// HasParticipant reports whether email is signed up.
func (a Activity) HasParticipant(email string) bool {
	return indexOf(a.Participants, email) >= 0
}

// SpotsLeft is the remaining capacity, never negative.
func (a Activity) SpotsLeft() int {
	if left := a.MaxParticipants - len(a.Participants); left > 0 {
		return left
	}
	return 0
}

// Registry maps activity name to activity.
type Registry map[string]Activity

// Confirmation is returned by successful mutations.
type Confirmation struct {
	Message string `json:"message"`
}

type EventType string

const (
	EventSignedUp     EventType = "participant_signed_up"
	EventUnregistered EventType = "participant_unregistered"
)

// ParticipantEvent describes one successful participant change.
type ParticipantEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
