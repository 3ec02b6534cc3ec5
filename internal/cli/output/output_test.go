package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		isTTY    bool
		expected Mode
	}{
		{"auto on tty resolves to text", ModeAuto, true, ModeText},
		{"auto on pipe resolves to markdown", ModeAuto, false, ModeMarkdown},
		{"explicit text stays text", ModeText, false, ModeText},
		{"explicit markdown stays markdown", ModeMarkdown, true, ModeMarkdown},
		{"explicit json stays json", ModeJSON, true, ModeJSON},
		{"unknown mode falls back to auto", Mode("yaml"), false, ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.expected, r.EffectiveMode())
		})
	}
}

func TestRenderer_PlainOutputWithoutTTY(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeMarkdown)

	r.Success("all checks passed")
	r.Warning("cache disabled")
	r.Error("policy invalid")
	r.Header(2, "Summary")
	r.StatusLine("layerlint.yaml", "success", "")
	r.StatusLine("lib/", "failed", "missing")

	combined := out.String() + errOut.String()
	assert.NotContains(t, combined, "\x1b[", "non-TTY output must not contain escape codes")

	assert.Contains(t, out.String(), "✓ all checks passed")
	assert.Contains(t, out.String(), "⚠ cache disabled")
	assert.Contains(t, out.String(), "## Summary")
	assert.Contains(t, out.String(), "✓ layerlint.yaml")
	assert.Contains(t, out.String(), "✗ lib/")
	assert.Contains(t, errOut.String(), "✗ policy invalid")
}

func TestRenderer_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"units": 12}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 12, decoded["units"])
	assert.Contains(t, out.String(), "\n", "output should be indented")
}

func TestRenderer_Writers(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeText)

	r.Println("to stdout")
	r.Printf("%d findings\n", 3)

	assert.Equal(t, out, r.Writer())
	assert.Equal(t, errOut, r.ErrWriter())
	assert.Contains(t, out.String(), "to stdout")
	assert.Contains(t, out.String(), "3 findings")
	assert.Empty(t, errOut.String())
}

func TestRenderer_WidthDefaultsOffTerminal(t *testing.T) {
	r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, ModeText)
	assert.Equal(t, 80, r.Width())
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# Report", FormatHeader(1, "Report"))
	assert.Equal(t, "### Rules", FormatHeader(3, "Rules"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
	assert.Equal(t, "###### Deep", FormatHeader(9, "Deep"))
}

func TestFormatKeyValue(t *testing.T) {
	assert.Equal(t, "- **Total Units:** 42", FormatKeyValue("Total Units", "42"))
}

func TestWrapText(t *testing.T) {
	t.Run("wraps at word boundaries", func(t *testing.T) {
		wrapped := WrapText("folder placement is authoritative for layer classification", 20)
		for _, line := range strings.Split(wrapped, "\n") {
			assert.LessOrEqual(t, len(line), 20, "line %q exceeds width", line)
		}
		assert.Equal(t,
			"folder placement is authoritative for layer classification",
			strings.ReplaceAll(wrapped, "\n", " "))
	})

	t.Run("preserves paragraph breaks", func(t *testing.T) {
		wrapped := WrapText("first paragraph\n\nsecond paragraph", 40)
		assert.Equal(t, "first paragraph\n\nsecond paragraph", wrapped)
	})

	t.Run("long word stays unbroken", func(t *testing.T) {
		wrapped := WrapText("see local_booking_data_source_components for details", 10)
		assert.Contains(t, wrapped, "local_booking_data_source_components")
	})

	t.Run("zero width is a no-op", func(t *testing.T) {
		assert.Equal(t, "unchanged text", WrapText("unchanged text", 0))
	})
}

func TestStyles_IconsWithoutColor(t *testing.T) {
	s := NewStyles(false)
	assert.Equal(t, "✓", s.StatusSuccess.String())
	assert.Equal(t, "✗", s.StatusFailed.String())
	assert.Equal(t, "plain", s.Muted.Render("plain"))
}
