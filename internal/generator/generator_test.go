package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreach-engine/internal/template"
)

func TestTemplateGenerator_Generate(t *testing.T) {
	g := NewTemplateGenerator("Great info {{first_name}}!")
	out, err := g.Generate(context.Background(), template.Vars{FirstName: "Jane"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Great info Jane!", out)
}
