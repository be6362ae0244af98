package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAreaArg(t *testing.T) {
	tests := []struct {
		name    string
		input   *string
		want    any
		wantErr bool
	}{
		{name: "nil stays null", input: nil, want: nil},
		{name: "integer", input: strPtr("1200"), want: "1200.00"},
		{name: "one decimal", input: strPtr("1250.5"), want: "1250.50"},
		{name: "rounded", input: strPtr("10.125"), want: "10.13"},
		{name: "malformed", input: strPtr("12,5 m2"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := areaArg("area", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid area")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntArg(t *testing.T) {
	got, err := intArg("version", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = intArg("version", strPtr("3"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), got)

	_, err = intArg("version", strPtr("3.0"))
	assert.Error(t, err)

	_, err = intArg("version", strPtr("99999999999"))
	assert.Error(t, err)
}

func TestArgBuilder_KeepsFirstError(t *testing.T) {
	var b argBuilder
	b.add("P1")
	b.area("area", strPtr("x"))
	b.int("version", strPtr("y"))

	require.Error(t, b.err)
	assert.Contains(t, b.err.Error(), "invalid area")
	assert.Len(t, b.args, 3)
}
