package fieldmap

import (
	"errors"
	"testing"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/page"
)

func TestResolveStatic(t *testing.T) {
	tr, err := Resolve(Search, page.AdvancedSearch, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id, ok := tr.Lookup("unhcr number"); !ok || id != "HoRefNo" {
		t.Fatalf("UNHCR NUMBER -> %q, %v", id, ok)
	}
	if _, ok := tr.Lookup("NATIONALITY"); ok {
		t.Fatalf("search translator must not map NATIONALITY")
	}
}

func TestResolveUnknownKind(t *testing.T) {
	if _, err := Resolve(Kind("Bogus"), page.Unknown, nil); !errors.Is(err, ErrNoTranslator) {
		t.Fatalf("err=%v; want ErrNoTranslator", err)
	}
}

func TestOptionalExtendedOnClientDetails(t *testing.T) {
	doc := dom.MustParse(`<form id="postClntVulSubmit"><label for="vul_7">Torture survivor</label></form>`)

	plain, _ := Resolve(Optional, page.Registration, doc)
	if _, ok := plain.Lookup("FAMILY SIZE"); ok {
		t.Fatalf("FAMILY SIZE must only resolve on client details")
	}
	if _, ok := plain.Lookup("TORTURE SURVIVOR"); ok {
		t.Fatalf("vulnerability labels must only resolve on client details")
	}

	ext, _ := Resolve(Optional, page.ClientBasicInformation, doc)
	if id, _ := ext.Lookup("FAMILY SIZE"); id != "CDDependentStatsLabel1" {
		t.Fatalf("FAMILY SIZE -> %q", id)
	}
	if id, _ := ext.Lookup("torture survivor"); id != "vul_7" {
		t.Fatalf("vulnerability label -> %q", id)
	}

	// labels are rediscovered per call, not cached
	again, _ := Resolve(Optional, page.ClientBasicInformation, dom.MustParse(`<p></p>`))
	if _, ok := again.Lookup("TORTURE SURVIVOR"); ok {
		t.Fatalf("label leaked from a previous resolution")
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	tr, _ := Resolve(Required, page.Registration, nil)
	tr["FIRST NAME"] = "changed"
	again, _ := Resolve(Required, page.Registration, nil)
	if id, _ := again.Lookup("FIRST NAME"); id != "LFIRSTNAME" {
		t.Fatalf("static table mutated: %q", id)
	}
}

func TestServiceDescription(t *testing.T) {
	if d, ok := ServiceDescription(" aep "); !ok || d != "Adult Education Program" {
		t.Fatalf("AEP -> %q, %v", d, ok)
	}
	if _, ok := ServiceDescription("DAP"); ok {
		t.Fatalf("DAP is not a service code")
	}
}

func TestIsDateField(t *testing.T) {
	if !IsDateField("rsd date") || IsDateField("RELIGION") {
		t.Fatalf("date field classification wrong")
	}
}
