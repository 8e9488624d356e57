package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FieldValue
		wantErr bool
	}{
		{"plain string", `"Jane"`, FieldValue{"Jane"}, false},
		{"string array", `["Camera","Lighting"]`, FieldValue{"Camera", "Lighting"}, false},
		{"empty array", `[]`, FieldValue{}, false},
		{"number coerced", `42`, FieldValue{"42"}, false},
		{"float coerced", `1.5`, FieldValue{"1.5"}, false},
		{"bool coerced", `true`, FieldValue{"true"}, false},
		{"null becomes empty", `null`, FieldValue{}, false},
		{"mixed array coerced", `["a",2]`, FieldValue{"a", "2"}, false},
		{"nested object rejected", `{"a":1}`, nil, true},
		{"nested array rejected", `[["a"]]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v FieldValue
			err := json.Unmarshal([]byte(tt.input), &v)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestFieldValue_MarshalJSON(t *testing.T) {
	// Single values keep the shape clients submitted
	data, err := json.Marshal(FieldValue{"Jane"})
	require.NoError(t, err)
	assert.Equal(t, `"Jane"`, string(data))

	// Multi-select values stay arrays
	data, err = json.Marshal(FieldValue{"Camera", "Lighting"})
	require.NoError(t, err)
	assert.Equal(t, `["Camera","Lighting"]`, string(data))
}

func TestFieldValue_IsBlank(t *testing.T) {
	assert.True(t, FieldValue{}.IsBlank())
	assert.True(t, FieldValue{""}.IsBlank())
	assert.True(t, FieldValue{"   ", "\t"}.IsBlank())
	assert.False(t, FieldValue{"x"}.IsBlank())
	assert.False(t, FieldValue{"", "x"}.IsBlank())
}

func TestFieldValue_String(t *testing.T) {
	assert.Equal(t, "Camera, Lighting", FieldValue{"Camera", "Lighting"}.String())
	assert.Equal(t, "solo", FieldValue{"solo"}.String())
	assert.Equal(t, "", FieldValue{}.String())
}

func TestSubmission_UnmarshalJSON(t *testing.T) {
	input := `{
		"contact_name": "Jane",
		"general_equipment": ["Camera", "Lighting"],
		"custom_field": "kept"
	}`

	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(input), &sub))

	assert.Equal(t, "Jane", sub.Get("contact_name"))
	assert.Equal(t, "Camera, Lighting", sub.Get("general_equipment"))
	// Unknown keys are carried through, never rejected
	assert.Equal(t, "kept", sub.Get("custom_field"))
}

func TestSubmission_ContactHelpers(t *testing.T) {
	sub := Submission{
		"contact_name":  {" Jane "},
		"contact_email": {"jane@x.com"},
	}

	assert.Equal(t, "Jane", sub.ContactName())
	assert.Equal(t, "jane@x.com", sub.ContactEmail())

	var empty Submission
	assert.Equal(t, "", empty.ContactName())
	assert.Equal(t, "", empty.ContactEmail())
}

func TestBookingRecord_HasFile(t *testing.T) {
	rec := &BookingRecord{}
	assert.False(t, rec.HasFile())

	rec.File = &FileMetadata{Filename: "brief.pdf", ContentType: "application/pdf", Size: 1024}
	assert.True(t, rec.HasFile())
}
