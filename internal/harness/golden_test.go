package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{
		"fire_alarm",
		"priority_threshold",
		"runaway_counter",
		"vip_discount",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace_OmitsEmptyError(t *testing.T) {
	result := NewResult()
	result.Engine = "default"
	result.Passes = 1

	data, err := MarshalTrace("empty", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"engine":"default","facts":{},"fired":[],"passes":1,"scenario":"empty","trace":[]}`,
		string(data))
}
