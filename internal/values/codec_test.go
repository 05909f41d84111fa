package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_FixedEntries(t *testing.T) {
	c := NewCodec()

	assert.Equal(t, float64(CodeFalse), c.Encode(Bool(false)))
	assert.Equal(t, float64(CodeUnknown), c.Encode(Unknown()))
	assert.Equal(t, float64(CodeTrue), c.Encode(Bool(true)))
	assert.Equal(t, 3, c.Len())
}

func TestCodec_AllocatesDownwardFromMinusTen(t *testing.T) {
	c := NewCodec()

	assert.Equal(t, -10.0, c.Encode(Text("tapaal")))
	assert.Equal(t, -11.0, c.Encode(Text("lola")))
	assert.Equal(t, -10.0, c.Encode(Text("tapaal")), "repeated values keep their code")
	assert.Equal(t, -12.0, c.Encode(Text("ReachabilityDeadlock")))
	assert.Equal(t, 6, c.Len())
}

func TestCodec_NumbersPassThrough(t *testing.T) {
	c := NewCodec()

	assert.Equal(t, 42.0, c.Encode(Number(42)))
	assert.Equal(t, -0.5, c.Encode(Number(-0.5)))
	assert.Equal(t, 3, c.Len(), "numbers never enter the table")
}

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec()
	for _, v := range []Value{Bool(true), Bool(false), Unknown(), Text("itstools"), Text("")} {
		assert.Equal(t, v, c.Decode(c.Encode(v)), "value %s", v)
	}
}

func TestCodec_DecodeUnmatchedIsUnknown(t *testing.T) {
	c := NewCodec()
	assert.Equal(t, Unknown(), c.Decode(-99))
	assert.Equal(t, Unknown(), c.Decode(0.25))
}

func TestCodec_PersistAndReload(t *testing.T) {
	c := NewCodec()
	c.Encode(Text("tapaal"))
	c.Encode(Text("lola"))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	reloaded := NewCodec()
	require.NoError(t, json.Unmarshal(data, reloaded))

	assert.Equal(t, c.Entries(), reloaded.Entries())
	assert.Equal(t, -11.0, reloaded.Encode(Text("lola")))
	assert.Equal(t, Text("tapaal"), reloaded.Decode(-10))
	assert.Equal(t, -12.0, reloaded.Encode(Text("greatspn")), "allocation resumes below stored codes")
}

func TestCodec_UnmarshalRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"duplicate code", `[{"value":false,"code":-1},{"value":null,"code":-2},{"value":true,"code":-3},{"value":"a","code":-3}]`},
		{"duplicate value", `[{"value":false,"code":-1},{"value":null,"code":-2},{"value":true,"code":-3},{"value":true,"code":-10}]`},
		{"number entry", `[{"value":false,"code":-1},{"value":null,"code":-2},{"value":true,"code":-3},{"value":4,"code":-10}]`},
		{"missing fixed entry", `[{"value":false,"code":-1},{"value":true,"code":-3}]`},
		{"not a list", `{"false":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCodec()
			require.Error(t, json.Unmarshal([]byte(tt.json), c))
		})
	}
}

func TestCodec_CloneIsIndependent(t *testing.T) {
	c := NewCodec()
	c.Encode(Text("a"))

	clone := c.Clone()
	clone.Encode(Text("b"))

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 5, clone.Len())
	assert.Equal(t, -11.0, c.Encode(Text("c")))
}
