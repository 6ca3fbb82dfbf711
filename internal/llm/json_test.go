package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
		{"prose around", `Sure! Here it is: {"name":"Ana"} hope that helps`, `{"name":"Ana"}`},
		{"braces in strings", `{"note":"use } and { freely","x":1}`, `{"note":"use } and { freely","x":1}`},
		{"escaped quote", `{"q":"say \"hi}\""}`, `{"q":"say \"hi}\""}`},
		{"unbalanced first", `{ oops {"ok":true}`, `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONMissing(t *testing.T) {
	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, ErrNoJSON)
	_, err = ExtractJSON("{ never closed")
	assert.ErrorIs(t, err, ErrNoJSON)
}
