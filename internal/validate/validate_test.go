package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cityinfo/internal/apperror"
)

type sample struct {
	Name        string `json:"name" validate:"required,max=5"`
	Description string `json:"description,omitempty" validate:"max=10"`
	Mode        string `mapstructure:"mode" validate:"oneof=local cloud"`
	Secret      string `json:"-" validate:"required"`
}

type nested struct {
	Inner sample `mapstructure:"inner"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sample{Name: "Paris", Mode: "local", Secret: "x"})
	assert.NoError(t, err)
}

func TestStruct_FieldKeysUseWireNames(t *testing.T) {
	err := Struct(sample{
		Name:        "",
		Description: strings.Repeat("d", 11),
		Mode:        "smtp",
		Secret:      "x",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ValidationMessage, appErr.Message)

	assert.Equal(t, []string{"The name field is required."}, appErr.Fields["name"])
	assert.Equal(t,
		[]string{"The field description must be a string with a maximum length of 10."},
		appErr.Fields["description"])
	assert.Equal(t, []string{"The field mode must be one of [local cloud]."}, appErr.Fields["mode"])
	assert.Len(t, appErr.Fields, 3)
}

func TestStruct_NestedNamespace(t *testing.T) {
	err := Struct(nested{Inner: sample{Name: "toolong", Mode: "local", Secret: "x"}})

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "inner.name")
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct(42)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}
