package runstate

// Key names one persisted run state entry. Names are shared with the
// transport payloads and must not change.
type Key string

const (
	KeyActionState   Key = "ACTION_STATE"
	KeyClientIndex   Key = "CLIENT_INDEX"
	KeyClientData    Key = "CLIENT_DATA"
	KeySettings      Key = "IMPORT_SETTINGS"
	KeyDuplicates    Key = "DUPLICATE_CLIENT_UNHCR_NO"
	KeyMessage       Key = "ADD_MESSAGE"
	KeyRunID         Key = "RUN_ID"
	KeySchemaVersion Key = "SCHEMA_VERSION"
)

// SchemaVersion is written when a batch begins and checked on every load.
const SchemaVersion = 1

// Keys lists every key in write order.
var Keys = []Key{
	KeyActionState, KeyClientIndex, KeyClientData, KeySettings,
	KeyDuplicates, KeyMessage, KeyRunID, KeySchemaVersion,
}

// StringKeys returns Keys as plain strings (kv watch lists, transport).
func StringKeys() []string {
	out := make([]string, len(Keys))
	for i, k := range Keys {
		out[i] = string(k)
	}
	return out
}

func knownKey(k string) (Key, bool) {
	for _, key := range Keys {
		if string(key) == k {
			return key, true
		}
	}
	return "", false
}
