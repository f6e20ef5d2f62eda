package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		presets PresetSet
		wantErr string
	}{
		{"valid", testPresets(), ""},
		{"empty", PresetSet{}, ""},
		{"bad table name", PresetSet{"bad name": InsertPreset{}}, "preset table"},
		{"bad column", PresetSet{"t": InsertPreset{Columns: []string{"a-b"}}}, "preset t"},
		{"id column declared", PresetSet{"t": InsertPreset{Columns: []string{"id"}}}, "assigned by the store"},
		{"duplicate column", PresetSet{"t": InsertPreset{Columns: []string{"a", "a"}}}, "duplicate column"},
		{"enum missing value column", PresetSet{"t": EnumPreset{IDColumn: "id"}}, "value column"},
		{"enum same columns", PresetSet{"t": EnumPreset{IDColumn: "id", ValueColumn: "id"}}, "both"},
		{"nil preset", PresetSet{"t": nil}, "nil preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.presets.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPresetSet_IDColumn(t *testing.T) {
	p := PresetSet{
		"plain": InsertPreset{},
		"enum":  EnumPreset{IDColumn: "enum_id", ValueColumn: "v"},
	}

	col, err := p.IDColumn("plain")
	require.NoError(t, err)
	assert.Equal(t, DefaultIDColumn, col)

	col, err = p.IDColumn("enum")
	require.NoError(t, err)
	assert.Equal(t, "enum_id", col)

	_, err = p.IDColumn("missing")
	require.Error(t, err)
	assert.True(t, IsShapeViolation(err))
}

func TestPresetSet_Tables(t *testing.T) {
	p := PresetSet{"b": InsertPreset{}, "a": InsertPreset{}, "c": InsertPreset{}}
	assert.Equal(t, []string{"a", "b", "c"}, p.Tables())
}

func TestNew_RejectsInvalidPresets(t *testing.T) {
	_, s := newTestEngine(t)

	_, err := New(s, PresetSet{"bad name": InsertPreset{}})
	require.Error(t, err)

	_, err = New(nil, PresetSet{})
	require.Error(t, err)
}
