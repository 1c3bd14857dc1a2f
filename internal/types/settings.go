package types

// Settings is the per-batch configuration chosen when an import starts.
// The JSON shape is shared with the settings UI.
type Settings struct {
	MatchSettings  MatchSettings  `json:"matchSettings"`
	SearchSettings SearchSettings `json:"searchSettings"`
	OtherSettings  OtherSettings  `json:"otherSettings"`
}

type MatchSettings struct {
	MatchFirst bool `json:"matchFirst"`
	MatchLast  bool `json:"matchLast"`
}

type SearchSettings struct {
	ByStarsNumber bool `json:"byStarsNumber"`
	ByUnhcr       bool `json:"byUnhcr"`
	ByPhone       bool `json:"byPhone"`
	ByOtherPhone  bool `json:"byOtherPhone"`
}

// Any reports whether at least one search strategy is enabled.
func (s SearchSettings) Any() bool {
	return s.ByStarsNumber || s.ByUnhcr || s.ByPhone || s.ByOtherPhone
}

type OtherSettings struct {
	CreateNew bool `json:"createNew"`
}

// DefaultSettings mirrors the settings page defaults. Client creation is off
// unless explicitly requested.
func DefaultSettings() Settings {
	return Settings{
		MatchSettings:  MatchSettings{MatchFirst: true, MatchLast: true},
		SearchSettings: SearchSettings{ByUnhcr: true},
		OtherSettings:  OtherSettings{CreateNew: false},
	}
}
