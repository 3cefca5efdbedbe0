package application

import "errors"

// Sentinel errors returned by the application services. The HTTP layer maps
// them onto status codes; message text is part of the API contract (login
// deliberately reports one message for unknown email and wrong password).
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
	ErrWrongPassword      = errors.New("current password is incorrect")

	ErrAPINotFound   = errors.New("api not found")
	ErrInvalidMethod = errors.New("method must be one of GET, POST, PUT, PATCH, DELETE")
	ErrInvalidStatus = errors.New("status must be one of active, inactive, deprecated")
)
