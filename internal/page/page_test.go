package page

import "testing"

func TestKindFromURL(t *testing.T) {
	cases := map[string]Kind{
		"http://rips.247lib.com/Stars/SearchClientDetails/AdvancedSearch":         AdvancedSearch,
		"http://rips.247lib.com/Stars/SearchClientDetails/ClientListSearchResult": AdvancedSearch,
		"http://rips.247lib.com/Stars/Registration/Registration":                  Registration,
		"http://rips.247lib.com/Stars/ClientDetails/ClientDetails?x=1":            ClientBasicInformation,
		"http://rips.247lib.com/Stars/ClientDetails/ClientServicesList":           Services,
		"http://rips.247lib.com/Stars/MatterAction/CreateNewServices":             Services,
		"http://rips.247lib.com/Stars/MatterAction/CreateNewAction":               AddAction,
		"http://rips.247lib.com/Stars/MatterAction/MatterActionsList":             ViewActions,
		"http://rips.247lib.com/Stars/Home/Index":                                 Unknown,
		"about:blank":                                                             Unknown,
	}
	for in, want := range cases {
		if got := KindFromURL(in); got != want {
			t.Fatalf("KindFromURL(%q)=%v; want %v", in, got, want)
		}
	}
}

func TestHrefsRoundTrip(t *testing.T) {
	for _, k := range []Kind{AdvancedSearch, Registration, ClientBasicInformation, Services, AddAction} {
		href := Href(k)
		if href == "" {
			t.Fatalf("no href for %v", k)
		}
		if got := KindFromURL("http://host" + href); got != k {
			t.Fatalf("href %q maps to %v; want %v", href, got, k)
		}
	}
	if Href(ViewActions) != "" {
		t.Fatalf("ViewActions has no menu tab")
	}
}

func TestSearchPieces(t *testing.T) {
	if !IsSearchResults("https://h/Stars/SearchClientDetails/ClientListSearchResult") {
		t.Fatalf("results page not detected")
	}
	if !IsSearchForm("https://h/Stars/SearchClientDetails/AdvancedSearch") {
		t.Fatalf("search page not detected")
	}
}
