package schema_test

import (
	"testing"

	"github.com/jackrun/bdicore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCommitAndVerify(t *testing.T) {
	r := schema.NewRegistry()
	err := r.Commit(schema.Definition{
		Name: "disk_moved",
		Fields: []schema.Field{
			{Name: "disk", Kind: schema.KindInt32, Required: true},
			{Name: "from", Kind: schema.KindString, Required: true},
			{Name: "to", Kind: schema.KindString, Required: true},
		},
	})
	require.NoError(t, err)

	msg := schema.NewMessage("disk_moved")
	msg.Set("disk", schema.IntValue(schema.KindInt32, 1))
	msg.Set("from", schema.StringValue("a"))
	msg.Set("to", schema.StringValue("b"))

	assert.NoError(t, r.Verify(msg))
}

func TestRegistryVerifyMissingRequiredField(t *testing.T) {
	r := schema.NewRegistry()
	require.NoError(t, r.Commit(schema.Definition{
		Name: "disk_moved",
		Fields: []schema.Field{
			{Name: "disk", Kind: schema.KindInt32, Required: true},
			{Name: "from", Kind: schema.KindString, Required: true},
		},
	}))

	msg := schema.NewMessage("disk_moved")
	msg.Set("disk", schema.IntValue(schema.KindInt32, 1))

	assert.Error(t, r.Verify(msg))
}

func TestRegistryVerifyUnknownSchema(t *testing.T) {
	r := schema.NewRegistry()
	msg := schema.NewMessage("nope")
	assert.Error(t, r.Verify(msg))
}

func TestMessageCloneIsDeep(t *testing.T) {
	inner := schema.NewMessage("inner")
	inner.Set("n", schema.IntValue(schema.KindInt32, 1))

	outer := schema.NewMessage("outer")
	outer.Set("child", schema.MessageValue(inner))
	outer.Set("vals", schema.VectorValue([]schema.Value{
		schema.IntValue(schema.KindInt32, 1),
		schema.IntValue(schema.KindInt32, 2),
	}))

	clone := outer.Clone()
	assert.True(t, outer.Equal(clone))

	inner.Set("n", schema.IntValue(schema.KindInt32, 99))
	cv, ok := clone.Get("child")
	require.True(t, ok)
	cn, ok := cv.Msg.Get("n")
	require.True(t, ok)
	assert.EqualValues(t, 1, cn.Int)
}

func TestValueEqual(t *testing.T) {
	a := schema.VectorValue([]schema.Value{schema.StringValue("x"), schema.StringValue("y")})
	b := schema.VectorValue([]schema.Value{schema.StringValue("x"), schema.StringValue("y")})
	c := schema.VectorValue([]schema.Value{schema.StringValue("x"), schema.StringValue("z")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
