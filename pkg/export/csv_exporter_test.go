package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderIsBOMPrefixed(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Carrera", "Institución", "Duración (semestres)"},
		Rows: []map[string]string{
			{"Carrera": "Medicina", "Institución": "Universidad Nacional", "Duración (semestres)": "12"},
			{"Carrera": "Derecho", "Institución": "Universidad Libre"},
		},
	})
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(out[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Carrera", "Institución", "Duración (semestres)"}, records[0])
	assert.Equal(t, []string{"Medicina", "Universidad Nacional", "12"}, records[1])
	assert.Equal(t, []string{"Derecho", "Universidad Libre", ""}, records[2])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
