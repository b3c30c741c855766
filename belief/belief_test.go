package belief_test

import (
	"testing"

	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageOverlayTakesPrecedence(t *testing.T) {
	c := belief.New()
	base := schema.NewMessage("goal_params")
	base.Set("depth", schema.IntValue(schema.KindInt32, 1))
	c.SetMessage(base)

	overlay := schema.NewMessage("goal_params")
	overlay.Set("depth", schema.IntValue(schema.KindInt32, 99))
	c.SetGoalContext(overlay)

	got, ok := c.Message("goal_params")
	require.True(t, ok)
	assert.True(t, got.Equal(overlay))
}

func TestResourceLockingAndViolation(t *testing.T) {
	c := belief.New()
	r := belief.NewResource("gripper", 0, true, 1, true)
	c.CommitResource(r)

	assert.False(t, r.Violated())

	c.LockResources([]ident.Ident{"gripper"})
	assert.False(t, r.Violated())

	c.LockResources([]ident.Ident{"gripper"})
	assert.True(t, r.Violated())

	violated, has := c.HasResourceViolation()
	assert.True(t, has)
	assert.Contains(t, violated, ident.Ident("gripper"))

	c.UnlockResources([]ident.Ident{"gripper"})
	assert.False(t, r.Violated())
}

func TestAddActionReplyMessageRecordsTruncatedBounds(t *testing.T) {
	c := belief.New()

	reply := schema.NewMessage("world_query_reply")
	reply.Set("returned", schema.IntValue(schema.KindInt32, 20))
	reply.Set("total", schema.IntValue(schema.KindInt32, 500))
	reply.Set("truncated", schema.BoolValue(true))
	reply.Set("refinement_hint", schema.StringValue("narrow by region"))
	c.AddActionReplyMessage(reply)

	b, ok := c.LastBounds("world_query_reply")
	require.True(t, ok)
	assert.Equal(t, 20, b.Returned)
	require.NotNil(t, b.Total)
	assert.Equal(t, 500, *b.Total)
	assert.True(t, b.Truncated)
	assert.Equal(t, "narrow by region", b.RefinementHint)

	full := schema.NewMessage("world_query_reply")
	full.Set("returned", schema.IntValue(schema.KindInt32, 3))
	full.Set("truncated", schema.BoolValue(false))
	c.AddActionReplyMessage(full)

	_, ok = c.LastBounds("world_query_reply")
	assert.False(t, ok, "a later untruncated reply clears the prior bounds record")
}

func TestCloneIsIndependent(t *testing.T) {
	c := belief.New()
	r := belief.NewResource("slots", 0, true, 5, true)
	c.CommitResource(r)
	msg := schema.NewMessage("inventory")
	msg.Set("count", schema.IntValue(schema.KindInt32, 2))
	c.SetMessage(msg)

	clone := c.Clone()
	cr, ok := clone.Resource("slots")
	require.True(t, ok)
	cr.Lock()

	orig, ok := c.Resource("slots")
	require.True(t, ok)
	assert.EqualValues(t, 0, orig.Count)
	assert.EqualValues(t, 1, cr.Count)
}
