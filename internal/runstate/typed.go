package runstate

import (
	"context"
	"fmt"

	"github.com/yourorg/rips-import/internal/kv"
	"github.com/yourorg/rips-import/internal/types"
)

// Load reads the whole run state. A state written by another schema version
// fails with ErrSchemaVersion.
func (s *Store) Load(ctx context.Context) (State, error) {
	var st State
	err := s.kv.View(ctx, func(tx kv.Txn) error {
		if err := decodeString(tx, KeyActionState, (*string)(&st.Action)); err != nil {
			return err
		}
		idx, err := readIndex(tx)
		if err != nil {
			return err
		}
		st.ClientIndex = idx
		if err := decodeOptional(tx, KeyClientData, &st.ClientData); err != nil {
			return err
		}
		var settings types.Settings
		if ok, err := decodeOptionalOK(tx, KeySettings, &settings); err != nil {
			return err
		} else if ok {
			st.Settings = &settings
		}
		if st.ErrorLog, err = readList(tx, string(KeyMessage)); err != nil {
			return err
		}
		if st.Duplicates, err = readList(tx, string(KeyDuplicates)); err != nil {
			return err
		}
		if err := decodeString(tx, KeyRunID, &st.RunID); err != nil {
			return err
		}
		return decodeOptional(tx, KeySchemaVersion, &st.SchemaVersion)
	})
	if err != nil {
		return State{}, err
	}
	if st.SchemaVersion != 0 && st.SchemaVersion != SchemaVersion {
		return st, fmt.Errorf("%w: stored %d, want %d", ErrSchemaVersion, st.SchemaVersion, SchemaVersion)
	}
	return st, nil
}

func decodeString(tx kv.Txn, key Key, dst *string) error {
	_, err := decodeOptionalOK(tx, key, dst)
	return err
}

func decodeOptional(tx kv.Txn, key Key, dst any) error {
	_, err := decodeOptionalOK(tx, key, dst)
	return err
}

// decodeOptionalOK decodes key into dst. A missing key or a stored "" leaves
// dst untouched and reports false.
func decodeOptionalOK(tx kv.Txn, key Key, dst any) (bool, error) {
	raw, ok, err := tx.Get(string(key))
	if err != nil || !ok {
		return false, err
	}
	if string(raw) == `""` || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrBadValue, key, err)
	}
	return true, nil
}

// SetAction persists the next action state.
func (s *Store) SetAction(ctx context.Context, a types.ActionState) error {
	_, err := s.Set(ctx, Values{string(KeyActionState): string(a)})
	return err
}

// Advance resets the action to the search entry state and auto-increments the
// client index in one write.
func (s *Store) Advance(ctx context.Context) error {
	_, err := s.Set(ctx, Values{
		string(KeyActionState): string(types.StateSearch),
		string(KeyClientIndex): "",
	})
	return err
}

// Skip logs msg and moves on to the next record in one write.
func (s *Store) Skip(ctx context.Context, msg string) error {
	if msg == "" {
		msg = "Unspecified error!"
	}
	_, err := s.Set(ctx, Values{
		string(KeyActionState): string(types.StateSearch),
		string(KeyClientIndex): "",
		string(KeyMessage):     msg,
	})
	return err
}

// AddMessage appends msg to the error log.
func (s *Store) AddMessage(ctx context.Context, msg string) error {
	if msg == "" {
		msg = "Unspecified error!"
	}
	_, err := s.Set(ctx, Values{string(KeyMessage): msg})
	return err
}

// ClearLog empties the error log.
func (s *Store) ClearLog(ctx context.Context) error {
	_, err := s.Set(ctx, Values{string(KeyMessage): ""})
	return err
}

// AddDuplicate records an identifier seen in an ambiguous search.
func (s *Store) AddDuplicate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.Set(ctx, Values{string(KeyDuplicates): id})
	return err
}

// Begin stores a fresh batch positioned on its first record.
func (s *Store) Begin(ctx context.Context, batch types.Batch, settings types.Settings) error {
	return s.BeginRun(ctx, "", batch, settings)
}

// BeginRun is Begin for a run known by runID. Duplicates left by an earlier
// batch are dropped.
func (s *Store) BeginRun(ctx context.Context, runID string, batch types.Batch, settings types.Settings) error {
	_, err := s.Set(ctx, Values{
		string(KeyActionState):   string(types.StateSearch),
		string(KeyClientData):    batch,
		string(KeyClientIndex):   0,
		string(KeySettings):      settings,
		string(KeyDuplicates):    "",
		string(KeyRunID):         runID,
		string(KeySchemaVersion): SchemaVersion,
	})
	return err
}

// Stop moves to FINISHED_STATE, drops the batch and logs msg when non-empty.
func (s *Store) Stop(ctx context.Context, msg string) error {
	_, err := s.Set(ctx, StopValues(msg))
	return err
}

// StopValues is the write performed by Stop.
func StopValues(msg string) Values {
	v := Values{
		string(KeyActionState): string(types.StateFinished),
		string(KeyClientData):  "",
		string(KeyClientIndex): 0,
	}
	if msg != "" {
		v[string(KeyMessage)] = msg
	}
	return v
}

// Clear resets every key.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.Set(ctx, ClearValues())
	return err
}

// ClearValues is the write performed by a full clear.
func ClearValues() Values {
	return Values{
		string(KeyClientData):    "",
		string(KeyClientIndex):   0,
		string(KeyActionState):   "",
		string(KeyDuplicates):    "",
		string(KeyMessage):       "",
		string(KeySettings):      "",
		string(KeyRunID):         "",
		string(KeySchemaVersion): "",
	}
}
