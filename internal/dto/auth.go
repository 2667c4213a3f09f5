package dto

// CurrentUser describes the caller as seen in their access token.
type CurrentUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}
