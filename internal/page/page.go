// Package page knows which screen of the target application the browser is
// on and exposes the small set of write operations the driver performs on it.
package page

import (
	"context"
	"net/url"
	"strings"
)

// Kind is a logical screen of the target application.
type Kind int

const (
	Unknown Kind = iota
	AdvancedSearch
	Registration
	ClientBasicInformation
	Services
	AddAction
	ViewActions
)

var kindNames = map[Kind]string{
	Unknown:                "Unknown",
	AdvancedSearch:         "AdvancedSearch",
	Registration:           "Registration",
	ClientBasicInformation: "ClientBasicInformation",
	Services:               "Services",
	AddAction:              "AddAction",
	ViewActions:            "ViewActions",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Kinds lists every known screen.
var Kinds = []Kind{AdvancedSearch, Registration, ClientBasicInformation, Services, AddAction, ViewActions}

// URL pieces are the last two path segments.
const (
	PieceSearch        = "SearchClientDetails/AdvancedSearch"
	PieceSearchResults = "SearchClientDetails/ClientListSearchResult"
	PieceRegistration  = "Registration/Registration"
	PieceClientDetails = "ClientDetails/ClientDetails"
	PieceServicesList  = "ClientDetails/ClientServicesList"
	PieceNewServices   = "MatterAction/CreateNewServices"
	PieceAddAction     = "MatterAction/CreateNewAction"
	PieceActionsList   = "MatterAction/MatterActionsList"
)

var pieceKinds = map[string]Kind{
	PieceSearch:        AdvancedSearch,
	PieceSearchResults: AdvancedSearch,
	PieceRegistration:  Registration,
	PieceClientDetails: ClientBasicInformation,
	PieceServicesList:  Services,
	PieceNewServices:   Services,
	PieceAddAction:     AddAction,
	PieceActionsList:   ViewActions,
}

// Tab hrefs used for navigation inside the application menu.
const (
	HrefSearch        = "/Stars/" + PieceSearch
	HrefSearchResults = "/Stars/" + PieceSearchResults
	HrefRegistration  = "/Stars/" + PieceRegistration
	HrefClientDetails = "/Stars/" + PieceClientDetails
	HrefServices      = "/Stars/" + PieceServicesList
	HrefAddAction     = "/Stars/" + PieceAddAction
)

// Href returns the navigation target for k, or "" when k has no menu tab.
func Href(k Kind) string {
	switch k {
	case AdvancedSearch:
		return HrefSearch
	case Registration:
		return HrefRegistration
	case ClientBasicInformation:
		return HrefClientDetails
	case Services:
		return HrefServices
	case AddAction:
		return HrefAddAction
	}
	return ""
}

// Piece returns the last two path segments of rawURL.
func Piece(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	if len(segs) < 2 {
		return strings.Join(segs, "/")
	}
	return segs[len(segs)-2] + "/" + segs[len(segs)-1]
}

// KindFromURL maps a page URL to its screen.
func KindFromURL(rawURL string) Kind {
	return pieceKinds[Piece(rawURL)]
}

// IsSearchResults reports whether rawURL is the search results listing.
func IsSearchResults(rawURL string) bool { return Piece(rawURL) == PieceSearchResults }

// IsSearchForm reports whether rawURL is the empty search form.
func IsSearchForm(rawURL string) bool { return Piece(rawURL) == PieceSearch }

// Page is the write side of the browser tab. Reads go through Content and
// the dom package.
type Page interface {
	URL() string
	Content(ctx context.Context) (string, error)
	// Fill sets the value of the element with the given id.
	Fill(ctx context.Context, id, value string) error
	// Select picks the option with the given value in the select with the given id.
	Select(ctx context.Context, id, optionValue string) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Navigate clicks the menu link pointing at href.
	Navigate(ctx context.Context, href string) error
	// Eval runs script in the page and returns its result.
	Eval(ctx context.Context, script string, arg any) (any, error)
}

// IDSelector is the css selector of the element with the given id.
func IDSelector(id string) string { return `[id="` + id + `"]` }

// LinkSelector is the css selector of the menu link pointing at href.
func LinkSelector(href string) string { return `a[href="` + href + `"]` }
