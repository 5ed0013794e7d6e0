package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycelian/nurture-tracker/internal/model"
)

type sample struct {
	Name  string `validate:"notblank,max=10"`
	Role  string `validate:"omitempty,oneof=manager employee"`
	Email string `validate:"omitempty,email"`
	Score *int   `validate:"omitempty,min=1,max=10"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "Lan"}))

	err := Struct(sample{Name: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "name is required")

	err = Struct(sample{Name: "Lan", Role: "owner"})
	assert.Contains(t, err.Error(), "role must be one of [manager employee]")

	err = Struct(sample{Name: "Lan", Email: "nope"})
	assert.Contains(t, err.Error(), "email must be a valid email")

	eleven := 11
	err = Struct(sample{Name: "Lan", Score: &eleven})
	assert.Contains(t, err.Error(), "score must be at most 10")
}
