package validator

import "errors"

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

// FieldError はどの項目が不正かを持つ。errors.Is(err, ErrInvalidInput) で判定できる
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
