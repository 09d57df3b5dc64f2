package revisions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChanged(t *testing.T) {
	t.Run("identical values are unchanged", func(t *testing.T) {
		values := map[string]any{"name": "Coastal SCITT", "active": true}
		assert.False(t, Changed(values, map[string]any{"name": "Coastal SCITT", "active": true}))
	})

	t.Run("differing value is changed", func(t *testing.T) {
		current := map[string]any{"name": "Coastal SCITT"}
		previous := map[string]any{"name": "Coastal Teaching School"}
		assert.True(t, Changed(current, previous))
	})

	t.Run("nil to value is changed", func(t *testing.T) {
		assert.True(t, Changed(map[string]any{"code": "1AB"}, map[string]any{"code": nil}))
	})

	t.Run("value to nil is changed", func(t *testing.T) {
		assert.True(t, Changed(map[string]any{"code": nil}, map[string]any{"code": "1AB"}))
	})

	t.Run("both nil is unchanged", func(t *testing.T) {
		assert.False(t, Changed(map[string]any{"code": nil}, map[string]any{"code": nil}))
	})

	t.Run("newly tracked field counts as changed", func(t *testing.T) {
		current := map[string]any{"name": "Coastal SCITT", "website": "https://example.org"}
		previous := map[string]any{"name": "Coastal SCITT"}
		assert.True(t, Changed(current, previous))
	})

	t.Run("times compare by instant not location", func(t *testing.T) {
		utc := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
		local := utc.In(time.FixedZone("BST", 3600))
		assert.False(t, Changed(map[string]any{"at": utc}, map[string]any{"at": local}))
		assert.True(t, Changed(map[string]any{"at": utc}, map[string]any{"at": utc.Add(time.Second)}))
	})

	t.Run("no string coercion", func(t *testing.T) {
		assert.True(t, Changed(map[string]any{"n": 1}, map[string]any{"n": "1"}))
	})
}

func TestActor(t *testing.T) {
	updater := uuid.New()
	creator := uuid.New()

	t.Run("updater wins", func(t *testing.T) {
		assert.Equal(t, &updater, Actor(&updater, &creator))
	})

	t.Run("falls back to creator", func(t *testing.T) {
		assert.Equal(t, &creator, Actor(nil, &creator))
	})

	t.Run("nil for system writes", func(t *testing.T) {
		assert.Nil(t, Actor(nil, nil))
	})
}

func TestActionFor(t *testing.T) {
	now := time.Now()

	assert.Equal(t, ActionCreate, ActionFor(1, nil))
	// A first revision that already carries deleted_at is still a create.
	assert.Equal(t, ActionCreate, ActionFor(1, &now))
	assert.Equal(t, ActionUpdate, ActionFor(2, nil))
	assert.Equal(t, ActionDelete, ActionFor(2, &now))
	assert.Equal(t, ActionDelete, ActionFor(7, &now))
}

func TestDeref(t *testing.T) {
	s := "ukprn"
	assert.Equal(t, any("ukprn"), Deref(&s))
	assert.Nil(t, Deref[string](nil))
}
