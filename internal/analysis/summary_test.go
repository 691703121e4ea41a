package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

func TestSummarize_Text(t *testing.T) {
	ds, err := dataset.ParseString("state,amount\nOH,\"1,200\"\nIN,300\n,x\n", "s.csv")
	require.NoError(t, err)
	got := Summarize(ds, DefaultInferencer()).Text()
	want := "Filas: 3\n" +
		"Columnas: 2\n" +
		"state: categórica (muestra 2)\n" +
		"amount: categórica (muestra 3)\n"
	assert.Equal(t, want, got)
}

func TestSummarize_NumericColumn(t *testing.T) {
	ds, err := dataset.ParseString("v\n1\n2\n3\n", "v.csv")
	require.NoError(t, err)
	s := Summarize(ds, DefaultInferencer())
	require.Len(t, s.Columns, 1)
	assert.Equal(t, "numeric", s.Columns[0].Kind)
	assert.Contains(t, s.Text(), "v: numérica (muestra 3)")
}

func TestSummarize_ZeroRows(t *testing.T) {
	ds, err := dataset.ParseString("a,b,c\n", "empty.csv")
	require.NoError(t, err)
	var text string
	require.NotPanics(t, func() { text = Summarize(ds, DefaultInferencer()).Text() })
	assert.Contains(t, text, "Filas: 0")
	assert.Contains(t, text, "Columnas: 3")
	assert.Contains(t, text, "a: categórica (muestra 0)")
}
