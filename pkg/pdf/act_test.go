package pdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActRenderer_BuiltinFont(t *testing.T) {
	r := NewActRenderer("")
	out, err := r.Render(ActDocument{
		Title:   "Showing act #7",
		Header:  []string{"Client: Ivanov", "Realtor: Petrov"},
		Columns: []string{"#", "Object", "Price"},
		Widths:  []float64{10, 130, 40},
		Rows:    [][]string{{"1", "apartment, 2 rooms, 3/9", "90000"}},
		Footer:  []string{"Client signature: ________"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestActRenderer_MissingFont(t *testing.T) {
	_, err := NewActRenderer("/nonexistent/font.ttf").Render(ActDocument{Title: "x"})
	assert.Error(t, err)
}
