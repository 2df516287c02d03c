package valueobjects

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/pkg/errors"
)

func TestNodeIDFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"uuid", "4b5f6d0e-4d7e-4f66-9a57-2f0c1d3c6e11", "4b5f6d0e-4d7e-4f66-9a57-2f0c1d3c6e11", false},
		{"object id", "65a1f0c2e4b0a1b2c3d4e5f6", "65a1f0c2e4b0a1b2c3d4e5f6", false},
		{"trimmed", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"whitespace", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NodeIDFromString(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestNewNodeID_IsUnique(t *testing.T) {
	a := NewNodeID()
	b := NewNodeID()

	assert.False(t, a.IsZero())
	assert.False(t, a.Equals(b))
}

func TestNodeID_JSON(t *testing.T) {
	type payload struct {
		Parent NodeID `json:"parent"`
	}

	data, err := json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"parent":null}`, string(data))

	data, err = json.Marshal(payload{Parent: OptionalNodeID("p1")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"parent":"p1"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"parent":" p2 "}`), &decoded))
	assert.Equal(t, "p2", decoded.Parent.String())

	require.NoError(t, json.Unmarshal([]byte(`{"parent":null}`), &decoded))
	assert.True(t, decoded.Parent.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"parent":42}`), &decoded))
}

func TestNodeID_Ptr(t *testing.T) {
	assert.Nil(t, NodeID{}.Ptr())
	p := OptionalNodeID("x").Ptr()
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

func TestNewNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int
		want    string
		wantMsg string
	}{
		{"plain", "Docs", 200, "Docs", ""},
		{"trims", "  Report \t", 200, "Report", ""},
		{"empty", "", 200, "", errors.MessageNameRequired},
		{"whitespace only", "   ", 200, "", errors.MessageNameRequired},
		{"too long", strings.Repeat("a", 11), 10, "", "Name must be at most 10 characters"},
		{"counts runes", strings.Repeat("é", 10), 10, strings.Repeat("é", 10), ""},
		{"no limit", strings.Repeat("a", 5000), 0, strings.Repeat("a", 5000), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := NewNodeNameWithLimit(tt.input, tt.limit)

			if tt.wantMsg != "" {
				require.Error(t, err)
				appErr := errors.GetAppError(err)
				require.NotNil(t, appErr)
				assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
				assert.Equal(t, tt.wantMsg, appErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, name.String())
		})
	}
}
