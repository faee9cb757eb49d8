package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementTypeIsValid(t *testing.T) {
	for mt := range validMovementTypes {
		assert.True(t, mt.IsValid(), "type %s", mt)
	}
	assert.False(t, MovementType("").IsValid())
	assert.False(t, MovementType("relocation").IsValid())
}

func TestConditionFromCode(t *testing.T) {
	tests := []struct {
		code string
		want UnitCondition
	}{
		{"A", ConditionNew},
		{"B", ConditionGood},
		{"C", ConditionFair},
		{"D", ConditionPoor},
	}
	for _, tt := range tests {
		got, err := ConditionFromCode(tt.code)
		require.NoError(t, err, "code %s", tt.code)
		assert.Equal(t, tt.want, got)
	}

	for _, code := range []string{"", "E", "a", "AA"} {
		_, err := ConditionFromCode(code)
		assert.Error(t, err, "code %q", code)
	}
}

func TestConditionIsRentable(t *testing.T) {
	assert.True(t, ConditionNew.IsRentable())
	assert.True(t, ConditionExcellent.IsRentable())
	assert.True(t, ConditionGood.IsRentable())
	assert.True(t, ConditionFair.IsRentable())
	assert.False(t, ConditionPoor.IsRentable())
	assert.False(t, ConditionDamaged.IsRentable())
}
