package models

// WaitlistSignupRequest is the body of POST /v1/waitlist.
type WaitlistSignupRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
	Goal  string  `json:"goal,omitempty"`
}
