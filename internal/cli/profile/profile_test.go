package profile

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/utils"
)

func newContext(store storage.Provider) (*cli.Context, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &cli.Context{
		Store: store,
		Codec: storage.MsgpackCodec{},
		Clock: utils.FixedClock(time.Date(2025, 7, 11, 10, 0, 0, 0, time.UTC)),
		Out:   out,
	}, out
}

func TestShowDefaults(t *testing.T) {
	ctx, out := newContext(storage.NewMemoryStore())
	require.NoError(t, (&ShowCmd{}).Run(ctx))

	s := out.String()
	assert.Contains(t, s, "Name:          "+constants.DefaultProfileName)
	assert.Contains(t, s, "Member since:  2025-07-11")
	assert.Contains(t, s, "Notifications: on")
}

func TestSetChangesOnlyGivenFields(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx, out := newContext(store)

	cmd := &SetCmd{Name: "Maria", Notifications: "off", Theme: "dark"}
	require.NoError(t, cmd.Validate())
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), "Profile updated.")

	fresh, _ := newContext(store)
	p := fresh.Manager(context.Background()).Profile()
	assert.Equal(t, "Maria", p.Name)
	assert.False(t, p.Notifications)
	assert.Equal(t, "dark", p.Theme)
	assert.Equal(t, constants.DefaultDailyGoal, p.DailyGoal)
	assert.Equal(t, constants.DefaultWeeklyGoal, p.WeeklyGoal)
}

func TestSetNothing(t *testing.T) {
	ctx, out := newContext(storage.NewMemoryStore())
	require.NoError(t, (&SetCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Nothing to update.")
}

func TestSetValidate(t *testing.T) {
	assert.Error(t, (&SetCmd{DailyGoal: -1}).Validate())
	assert.Error(t, (&SetCmd{Theme: "neon"}).Validate())
	assert.Error(t, (&SetCmd{Notifications: "maybe"}).Validate())
	assert.NoError(t, (&SetCmd{Notifications: "true", Theme: "light"}).Validate())
}

func TestParseOnOff(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "YES": true, "off": false, "no": false, "1": true, "false": false} {
		got, err := parseOnOff(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
