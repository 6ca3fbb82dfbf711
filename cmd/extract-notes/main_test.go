package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadpilot-crm/internal/llm"
	"github.com/wolfman30/leadpilot-crm/internal/scoring"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

type cannedLLM struct{ text string }

func (c cannedLLM) Complete(context.Context, llm.Request) (llm.Response, error) {
	return llm.Response{Text: c.text}, nil
}

func TestReadNotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	got, err := readNotes([]string{path}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readNotes([]string{"-"}, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readNotes([]string{filepath.Join(t.TempDir(), "missing.txt")}, nil)
	assert.Error(t, err)
}

func TestExtractScoresDraft(t *testing.T) {
	client := cannedLLM{text: `{"name":"Ana","status":"qualified","lead_type":"hot","score":8,"score_scale":10,"potential_value":"$1,000"}`}

	out, err := extract(context.Background(), client, "Ana is ready to sign", logging.New("error"))
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.Draft.Name)
	assert.Equal(t, 90.0, out.Analysis.Probability)
	assert.Equal(t, 100.0, out.Analysis.Urgency)
	assert.Equal(t, scoring.ActionCloseNow, out.Analysis.Action)
	assert.Equal(t, scoring.UrgencyHigh, out.Urgency)
}

func TestExtractWithoutProvider(t *testing.T) {
	_, err := extract(context.Background(), nil, "notes", logging.New("error"))
	assert.Error(t, err)
}
