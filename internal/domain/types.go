package domain

// RequestContext carries the caller identity read from the bearer token when available.
type RequestContext struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// Owner returns the key that scopes the caller's durable slots.
func (r RequestContext) Owner() string {
	return r.UserID
}
