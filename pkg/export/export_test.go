package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"student", "average", "risk"},
		Rows: []map[string]string{
			{"student": "Ana Pérez", "average": "45.00", "risk": "ALTO"},
			{"student": "Luis Soto", "average": "55.50"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "student,average,risk\nAna Pérez,45.00,ALTO\nLuis Soto,55.50,\n", string(out))
}

func TestCSVExporterSemicolon(t *testing.T) {
	out, err := NewCSVExporterWithComma(';').Render(Dataset{Headers: []string{"a", "b"}, Rows: []map[string]string{{"a": "1", "b": "2"}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Students at academic risk")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
}
