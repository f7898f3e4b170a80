package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"powerchip/internal/repository"
)

const minPasswordLength = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) *AuthValidator {
	return &AuthValidator{users: users}
}

// サインアップの入力を検証
func (v *AuthValidator) ValidateRegister(ctx context.Context, email, password, name, document string) error {
	email = strings.TrimSpace(email)

	if !IsEmail(email) {
		return invalid("email", "invalid")
	}
	if len(password) < minPasswordLength {
		return invalid("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return invalid("name", "required")
	}
	// CPFは任意。入っていれば桁チェック
	if strings.TrimSpace(document) != "" && !IsCPF(document) {
		return invalid("document", "invalid cpf")
	}

	// email重複チェック
	_, err := v.users.FindByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return ErrEmailAlreadyUsed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(_ context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if !IsEmail(email) {
		return ErrInvalidInput
	}
	return nil
}

// 簡易メール形式（連続したドットは不可）
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "..") {
		return false
	}
	return emailRe.MatchString(s)
}
