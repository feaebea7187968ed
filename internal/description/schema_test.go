package description

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

func TestParse_RoundTrip(t *testing.T) {
	desc := New(testStabilityConfig()).Generate(mixedGraph(), "demo", time.Unix(0, 0))
	raw, err := json.Marshal(desc)
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, desc.Meta.Name, parsed.Meta.Name)
	assert.Len(t, parsed.Nodes, len(desc.Nodes))
	assert.Len(t, parsed.Rules, len(desc.Rules))
}

func TestParse_UnknownFieldsAccepted(t *testing.T) {
	raw := []byte(`{
		"meta": {"name": "x", "source": "manual", "version": 1, "x_custom": true},
		"defaults": {"initial_activation": 0, "default_rule": "identity", "damping_coefficient": 0.5, "inheritance_mode": "compose"},
		"nodes": [{"id": 0, "path": "a.go", "kind": "file", "x_extra": "kept"}],
		"rules": [{"name": "identity", "type": "builtin"}]
	}`)
	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "x", parsed.Meta.Name)
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing meta", `{"defaults": {}, "nodes": [], "rules": []}`},
		{"bad source", `{"meta": {"name": "x", "source": "guesswork", "version": 1}, "defaults": {}, "nodes": [], "rules": []}`},
		{"stability out of range", `{"meta": {"name": "x", "source": "manual", "version": 1}, "defaults": {}, "nodes": [{"id": 0, "kind": "file", "stability": 2.5}], "rules": []}`},
		{"rule missing type", `{"meta": {"name": "x", "source": "manual", "version": 1}, "defaults": {}, "nodes": [], "rules": [{"name": "r"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrStoreCorrupted)
		})
	}
}
