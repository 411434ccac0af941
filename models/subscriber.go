package models

import "time"

// Subscriber is one opted-in email address. Email is the natural key; ID is
// whatever surrogate the backing store generates.
type Subscriber struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a copy that shares no state with s.
func (s *Subscriber) Clone() Subscriber {
	return Subscriber{
		ID:        s.ID,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
	}
}
