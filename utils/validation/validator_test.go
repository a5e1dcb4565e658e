package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planInput struct {
	Name     string   `json:"name" validate:"required,plan_name"`
	Type     string   `json:"type" validate:"required,plan_type"`
	Duration int      `json:"duration" validate:"plan_duration"`
	Features []string `json:"features" validate:"required,min=1,dive,required"`
	Category string   `json:"category" validate:"omitempty,course_category"`
}

func TestCatalogEnums(t *testing.T) {
	v := NewValidator()

	ok := planInput{Name: "Premium", Type: "Personal", Duration: 365, Features: []string{"All courses"}, Category: "DevOps"}
	assert.NoError(t, v.ValidateStruct(ok))

	bad := planInput{Name: "Platinum", Type: "Family", Duration: 90, Category: "Cooking"}
	err := v.ValidateStruct(bad)
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	assert.Contains(t, formatted, "name")
	assert.Contains(t, formatted, "type")
	assert.Contains(t, formatted, "duration")
	assert.Contains(t, formatted, "features")
	assert.Contains(t, formatted, "category")
	assert.Equal(t, "features is required", formatted["features"])
}

func TestSummaryIsStable(t *testing.T) {
	v := NewValidator()
	err := v.ValidateStruct(planInput{Name: "Basic", Type: "Personal", Duration: 30})
	require.Error(t, err)
	assert.Equal(t, "features is required", Summary(err))
}

func TestValidatePassword(t *testing.T) {
	ok, problems := ValidatePassword("abc")
	assert.False(t, ok)
	assert.Len(t, problems, 2)

	ok, _ = ValidatePassword("learner2025")
	assert.True(t, ok)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Go Basics", SanitizeString("  Go\x00 Basics \n"))
}
