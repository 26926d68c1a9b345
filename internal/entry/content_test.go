package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTextWrapsAsSingleLine(t *testing.T) {
	c, err := FromText("hello")
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, c.Lines)
	assert.Equal(t, 1, c.SchemaVersion)

	raw, err := c.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":["hello"],"schema_version":1}`, raw)
}

func TestFromTextRejectsSerializedInput(t *testing.T) {
	_, err := FromText(`{"content": ["sneaky"], "schema_version": 1}`)

	var invalid *InvalidContentError
	require.ErrorAs(t, err, &invalid, "text that is already a wrapper must fail loudly, not double-wrap")
}

func TestFromTextRejectsEmpty(t *testing.T) {
	_, err := FromText("   ")
	var invalid *InvalidContentError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewContentRejectsSerializedLine(t *testing.T) {
	_, err := NewContent("a real note", `{"nested": true}`)
	var invalid *InvalidContentError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewContentDropsBlankLines(t *testing.T) {
	c, err := NewContent("first", "  ", "second")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, c.Lines)
}

func TestNewContentAllowsBracketPrefixedProse(t *testing.T) {
	// Prose starting with a bracket is fine as long as it is not valid JSON.
	c, err := NewContent("[morning] temperature was normal")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

func TestUnmarshalContentRoundTrip(t *testing.T) {
	c, err := NewContent("Checkup went fine", "Follow-up in June")
	require.NoError(t, err)

	raw, err := c.Marshal()
	require.NoError(t, err)

	back, err := UnmarshalContent(raw)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestUnmarshalContentRejectsForeignShapes(t *testing.T) {
	for _, raw := range []string{
		`"just a string"`,
		`{"content":"not a list","schema_version":1}`,
		`{"content":[],"schema_version":1}`,
		`{"content":["ok"],"schema_version":7}`,
		`not json at all`,
	} {
		_, err := UnmarshalContent(raw)
		assert.Error(t, err, "raw=%s", raw)
	}
}
