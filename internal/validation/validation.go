package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// invalid envuelve el mensaje en common.ErrBadRequest
func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), common.ErrBadRequest)
}

// ValidateRequired valida que un campo no esté vacío
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", fieldName)
	}
	return nil
}

// ValidateMinLength valida la longitud mínima de un string
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < minLength {
		return invalid("%s must be at least %d characters long", fieldName, minLength)
	}
	return nil
}

// ValidateMaxLength valida la longitud máxima de un string
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return invalid("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// ParseUUID valida y convierte un identificador de ruta
func ParseUUID(value, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, invalid("%s must be a valid UUID", fieldName)
	}
	return id, nil
}

// ValidateEmail valida formato de email
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email must have a valid format")
	}
	return nil
}

// UserValidation contiene validaciones específicas para usuarios
type UserValidation struct{}

// ValidateCredentials valida email y contraseña de registro
func (v UserValidation) ValidateCredentials(email, password string) error {
	if err := ValidateRequired(email, "email"); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidateMinLength(password, 6, "password"); err != nil {
		return err
	}
	return ValidateMaxLength(password, 72, "password")
}

// ResidentValidation contiene validaciones específicas para residentes
type ResidentValidation struct{}

// ValidateProfile valida los campos obligatorios del perfil
func (v ResidentValidation) ValidateProfile(firstName, lastName, apartment, building string) error {
	fields := []struct{ value, name string }{
		{firstName, "firstName"},
		{lastName, "lastName"},
		{apartment, "apartment"},
		{building, "building"},
	}
	for _, f := range fields {
		if err := ValidateRequired(f.value, f.name); err != nil {
			return err
		}
		if err := ValidateMaxLength(f.value, 100, f.name); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePhone valida un teléfono opcional
func (v ResidentValidation) ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	for _, r := range phone {
		if !strings.ContainsRune("0123456789+-() ", r) {
			return invalid("phone contains invalid characters")
		}
	}
	return ValidateMaxLength(phone, 30, "phone")
}
