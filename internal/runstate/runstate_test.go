package runstate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rips-import/internal/kv"
	"github.com/yourorg/rips-import/internal/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(kv.NewMemory(), nil)
}

func TestAutoIncrementFromStoredValue(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Set(ctx, Values{"CLIENT_INDEX": 4})
	require.NoError(t, err)

	_, err = s.Set(ctx, Values{"CLIENT_INDEX": ""})
	require.NoError(t, err)

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.ClientIndex)
}

func TestAutoIncrementWithoutPriorValue(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	status, err := s.Set(ctx, Values{"CLIENT_INDEX": nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"Saved: CLIENT_INDEX:1"}, status)

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ClientIndex)
}

func TestUnknownKeyRejectsWholeWrite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Set(ctx, Values{"ACTION_STATE": "WAITING", "NOPE": 1})
	require.ErrorIs(t, err, ErrUnknownKey)

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StateNone, st.Action)
}

func TestFailedBackendWriteIsReported(t *testing.T) {
	m := kv.NewMemory()
	m.FailUpdates = errors.New("disk gone")
	s := New(m, nil)
	err := s.Advance(context.Background())
	require.Error(t, err)
}

func TestMessagesAppendAndClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.AddMessage(ctx, "one"))
	require.NoError(t, s.AddMessage(ctx, "two"))
	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, st.ErrorLog)

	require.NoError(t, s.ClearLog(ctx))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.ErrorLog)
}

func TestDuplicatesResetOnEmpty(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.AddDuplicate(ctx, "505-1"))
	require.NoError(t, s.AddDuplicate(ctx, "505-2"))
	_, err := s.Set(ctx, Values{"DUPLICATE_CLIENT_UNHCR_NO": ""})
	require.NoError(t, err)
	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Duplicates)
}

func TestBeginStopAndClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	batch := types.Batch{{"FIRST NAME": "A"}, {"FIRST NAME": "B"}}
	require.NoError(t, s.Begin(ctx, batch, types.DefaultSettings()))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StateSearch, st.Action)
	assert.Equal(t, 0, st.ClientIndex)
	assert.Len(t, st.ClientData, 2)
	require.NotNil(t, st.Settings)
	assert.True(t, st.Settings.SearchSettings.ByUnhcr)

	require.NoError(t, s.Stop(ctx, "done"))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StateFinished, st.Action)
	assert.Empty(t, st.ClientData)
	assert.Equal(t, []string{"done"}, st.ErrorLog)

	require.NoError(t, s.Clear(ctx))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StateNone, st.Action)
	assert.Nil(t, st.Settings)
	assert.Empty(t, st.ErrorLog)
}

func TestBeginRunResetsDuplicatesAndKeepsRunID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.AddDuplicate(ctx, "505-1"))
	require.NoError(t, s.BeginRun(ctx, "run-7", types.Batch{{"FIRST NAME": "A"}}, types.DefaultSettings()))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Duplicates)
	assert.Equal(t, "run-7", st.RunID)

	require.NoError(t, s.Clear(ctx))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.RunID)
}

func TestSkipIsOneWrite(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	s := New(m, nil)
	require.NoError(t, s.Begin(ctx, types.Batch{{}, {}}, types.DefaultSettings()))
	_, err := s.Set(ctx, Values{"ACTION_STATE": string(types.StateAnalyzeUnhcr)})
	require.NoError(t, err)

	m.FailUpdates = errors.New("disk gone")
	require.Error(t, s.Skip(ctx, "gone"))
	m.FailUpdates = nil

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.ClientIndex)
	assert.Empty(t, st.ErrorLog)

	require.NoError(t, s.Skip(ctx, "Skipping Client #1: x"))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ClientIndex)
	assert.Equal(t, types.StateSearch, st.Action)
	assert.Equal(t, []string{"Skipping Client #1: x"}, st.ErrorLog)
}

func TestCorruptStoredValueFailsWrite(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	require.NoError(t, m.Update(ctx, func(tx kv.Txn) error {
		return tx.Set("ACTION_STATE", []byte("{not json"))
	}))
	s := New(m, nil)
	_, err := s.Set(ctx, Values{"ACTION_STATE": "WAITING"})
	require.ErrorIs(t, err, ErrBadValue)
}

func TestSchemaVersionMismatch(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Set(ctx, Values{"SCHEMA_VERSION": 99})
	require.NoError(t, err)
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrSchemaVersion)
}

func TestSubscribersSeeCommittedChanges(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	var got []Change
	cancel := s.Subscribe(func(c Change) { got = append(got, c) })
	require.NoError(t, s.AddMessage(ctx, "hello"))
	cancel()
	require.NoError(t, s.AddMessage(ctx, "ignored"))

	require.Len(t, got, 1)
	assert.Equal(t, KeyMessage, got[0].Key)
	assert.Equal(t, "hello", got[0].New)
}

func TestGetDecodesStoredValues(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SetAction(ctx, types.StateRegister))
	out, err := s.Get(ctx, "ACTION_STATE", "CLIENT_INDEX")
	require.NoError(t, err)
	assert.Equal(t, "REGISTER_NEW_CLIENT", out["ACTION_STATE"])
	_, present := out["CLIENT_INDEX"]
	assert.False(t, present)
}

func TestBadgerBackedStore(t *testing.T) {
	b, err := kv.OpenBadger(t.TempDir())
	require.NoError(t, err)
	s := New(b, nil)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Begin(ctx, types.Batch{{}}, types.DefaultSettings()))
	require.NoError(t, s.Advance(ctx))
	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ClientIndex)
	assert.Equal(t, types.StateSearch, st.Action)
}
