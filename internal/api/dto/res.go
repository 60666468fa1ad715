package dto

// Res is the error envelope, {"detail": ...}
type Res struct {
	Detail any `json:"detail"`
}

type ErrorType struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type MessageRes struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
