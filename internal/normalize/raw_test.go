package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList_KeepsPositionOfMalformedElements(t *testing.T) {
	raws, err := DecodeList([]byte(`[{"_id":"a1"},"corrupt",null,42,{"_id":"a3"}]`))
	require.NoError(t, err)
	require.Len(t, raws, 5)

	assert.Equal(t, "a1", RecordID(raws[0]))
	for _, i := range []int{1, 2, 3} {
		assert.NotNil(t, raws[i])
		assert.Empty(t, raws[i])
	}
	assert.Equal(t, "a3", RecordID(raws[4]))

	views := NormalizeAppointments(raws)
	assert.Equal(t, "PT-1", views[1].PatientCode)
	assert.Equal(t, "a3", views[4].ID)
}

func TestDecodeList_RejectsNonArrays(t *testing.T) {
	_, err := DecodeList([]byte(`{"_id":"a1"}`))
	assert.Error(t, err)

	raws, err := DecodeList([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "abc", RecordID(Raw{"_id": map[string]any{"$oid": "abc"}}))
	assert.Equal(t, "x", RecordID(Raw{"_id": "x", "id": "y"}))
	assert.Equal(t, "y", RecordID(Raw{"id": "y"}))
	assert.Equal(t, "", RecordID(nil))
}

func TestAsFloat_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"float64", 1.5, true},
		{"float32", float32(2.5), true},
		{"float64 NaN", math.NaN(), false},
		{"float32 NaN", float32(math.NaN()), false},
		{"float32 Inf", float32(math.Inf(1)), false},
		{"string Inf", "Inf", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := asFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
	assert.Equal(t, "", BMI(float32(math.Inf(1)), 70))
}
