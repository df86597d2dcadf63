package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nyansa/flintrock/internal/template"
)

func TestRenderSubstitutesKnownFields(t *testing.T) {
	out := template.Render(
		"export SPARK_LOCAL_DIRS={spark_scratch_dir}",
		map[string]string{"spark_scratch_dir": "/mnt/spark"},
	)
	assert.Equal(t, "export SPARK_LOCAL_DIRS=/mnt/spark", out)
}

func TestRenderPreservesUnknownPlaceholders(t *testing.T) {
	out := template.Render(
		`export JAVA_HOME="${JAVA_HOME:-/usr/lib/jvm/jre}" {unbound}`,
		map[string]string{"name": "myspark"},
	)
	assert.Contains(t, out, "{unbound}")
	assert.Contains(t, out, `${JAVA_HOME:-/usr/lib/jvm/jre}`)
}

func TestRenderMultipleOccurrences(t *testing.T) {
	out := template.Render("{name}-{name}", map[string]string{"name": "x"})
	assert.Equal(t, "x-x", out)
}

func TestRenderEmptyBindings(t *testing.T) {
	out := template.Render("{name} stays", map[string]string{})
	assert.Equal(t, "{name} stays", out)
}

func TestRenderNoPlaceholders(t *testing.T) {
	out := template.Render("plain text", map[string]string{"name": "x"})
	assert.Equal(t, "plain text", out)
}
