package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SimpleVariable(t *testing.T) {
	result, err := Render("Hi {{first_name}}, loved your post at {{company}}.", Vars{
		FirstName: "Jane",
		Company:   "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi Jane, loved your post at Acme.", result)
}

func TestRender_MissingVariableLeftAsPlaceholder(t *testing.T) {
	result, err := Render("Hi {{first_name}}, congrats at {{company}}!", Vars{FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Jane, congrats at {{company}}!", result)
}

func TestRender_ExpressionComposition(t *testing.T) {
	result, err := Render("${first_name == \"\" ? \"there\" : first_name}, welcome!", Vars{FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Jane, welcome!", result)
}

func TestRender_NoTemplatePatternsIsNoop(t *testing.T) {
	result, err := Render("Plain text with no placeholders", Vars{})
	require.NoError(t, err)
	assert.Equal(t, "Plain text with no placeholders", result)
}
