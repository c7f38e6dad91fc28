package apperrors

import "errors"

// Kind identifies a domain failure category independent of its HTTP
// representation. Handlers translate kinds to status codes; services
// only ever raise the sentinel values below.
type Kind string

const (
	KindUserAlreadyRegistered Kind = "user_already_registered"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindUserNotFound          Kind = "user_not_found"
	KindInvalidToken          Kind = "invalid_token"
	KindInvalidTaskName       Kind = "invalid_task_name"
	KindInvalidDueDate        Kind = "invalid_due_date"
	KindTaskNotFound          Kind = "task_not_found"
)

type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	ErrUserAlreadyRegistered = &DomainError{Kind: KindUserAlreadyRegistered, Message: "user already registered"}
	ErrInvalidCredentials    = &DomainError{Kind: KindInvalidCredentials, Message: "invalid email or password"}
	ErrUserNotFound          = &DomainError{Kind: KindUserNotFound, Message: "user not found"}
	ErrInvalidToken          = &DomainError{Kind: KindInvalidToken, Message: "invalid or expired token"}
	ErrInvalidTaskName       = &DomainError{Kind: KindInvalidTaskName, Message: "task title must not be empty or start with a digit"}
	ErrInvalidDueDate        = &DomainError{Kind: KindInvalidDueDate, Message: "due date must be a date or date-time string"}
	ErrTaskNotFound          = &DomainError{Kind: KindTaskNotFound, Message: "task not found"}
)

// IsDomain reports whether err is one of the closed set of domain
// errors, returning it typed when so.
func IsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
