package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Accessors(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		wantID    string
		wantOwner string
	}{
		{"strings", Record{"id": "1", OwnerField: "a@b.c"}, "1", "a@b.c"},
		{"json number id", Record{"id": json.Number("42")}, "42", ""},
		{"float id", Record{"id": float64(7)}, "7", ""},
		{"missing", Record{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, tt.rec.ID())
			assert.Equal(t, tt.wantOwner, tt.rec.Owner())
		})
	}
}

func TestCollections_Known(t *testing.T) {
	assert.Contains(t, Collections, "students")
	assert.Contains(t, Collections, "staffAttendance")
	assert.Len(t, Collections, 9)
}
