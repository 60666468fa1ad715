package constant

import "net/http"

type CustomError struct {
	StatusCode int
	Message    string
}

func NewCError(StatusCode int, Message string) CustomError {
	return CustomError{StatusCode: StatusCode, Message: Message}
}

func (err CustomError) Error() string {
	return err.Message
}

var (
	ErrEmailRegistered = NewCError(http.StatusBadRequest,
		"Email already registered")
	ErrInvalidCredentials = NewCError(http.StatusUnauthorized,
		"Invalid credentials")
	ErrUnauthorized = NewCError(http.StatusUnauthorized,
		"Could not validate credentials")
	ErrTradeNotFound = NewCError(http.StatusNotFound,
		"Trade not found")
	ErrInvalidTradeType = NewCError(http.StatusBadRequest,
		"trade_type must be put or call")
	ErrInvalidTicker = NewCError(http.StatusBadRequest,
		"ticker must not be blank")
	ErrPriceUnavailable = NewCError(http.StatusNotFound,
		"Unable to fetch stock price")
	ErrPushNotConfigured = NewCError(http.StatusNotFound,
		"Web push is not configured")
	ErrInvalidBody = NewCError(http.StatusBadRequest,
		"invalid request body")
)
