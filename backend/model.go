package backend

import "encoding/json"

// User is the account record embedded in credential exchange responses.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Member is one entry of the member directory.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Event is the platform event record.
type Event struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Venue        string   `json:"venue"`
	Registration bool     `json:"registration"`
	Tags         []string `json:"tags"`
	Poster       string   `json:"poster,omitempty"`
	Gallery      []string `json:"gallery,omitempty"`
}

// EventCategories are the category values the backend accepts.
var EventCategories = []string{
	"CONFERENCE",
	"WORKSHOP",
	"MEETUP",
	"SEMINAR",
	"CONCERT",
	"SPORTS",
	"TECH",
	"OTHER",
}

// RegisterPayload is returned by a successful registration: the account is
// created pending OTP verification, no credential is issued yet.
type RegisterPayload struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// VerifyPayload is returned by a successful OTP verification. It is the only
// payload that carries a usable backend token.
type VerifyPayload struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	ProfileID string `json:"profileId"`
}

// LoginPayload is returned by a successful login. Token and User are absent
// when the account still awaits OTP verification.
type LoginPayload struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ProfileID string `json:"profileId"`
	Message   string `json:"message,omitempty"`
}

// EventList is the envelope of the public event listing.
type EventList struct {
	Success bool    `json:"success"`
	Count   int     `json:"count"`
	Events  []Event `json:"events"`
}

// The backend has shipped both "id" and Mongo-style "_id" spellings, so
// record decoding tolerates either.

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var aux struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.alias)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

func (m *Member) UnmarshalJSON(data []byte) error {
	type alias Member
	var aux struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Member(aux.alias)
	if m.ID == "" {
		m.ID = aux.MongoID
	}
	return nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var aux struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Event(aux.alias)
	if e.ID == "" {
		e.ID = aux.MongoID
	}
	return nil
}
