package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/rips-import/internal/dom"
)

var fixedNow = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestNormalizeDate(t *testing.T) {
	ok := map[string]string{
		"1-Mar-2017":            "1/3/2017",
		"15/6/2020":             "15/6/2020",
		".03/04/2001":           "3/4/2001",
		"2-September-1990":      "2/9/1990",
		"9-sept-2010":           "9/9/2010",
		"15/6/2020 10:30:00 AM": "15/6/2020",
		"1/1/2025":              "1/1/2025",
	}
	for in, want := range ok {
		got, err := NormalizeDate(in, fixedNow)
		if err != nil || got != want {
			t.Fatalf("NormalizeDate(%q)=%q,%v; want %q", in, got, err, want)
		}
	}

	bad := []string{
		"31/12/1899",
		"32/1/2020",
		"7/31/2017  4:25:37 PM",
		"1/1/2026",
		"1-Foo-2017",
		"2017.01.01",
		"a/b/c",
		"",
	}
	for _, in := range bad {
		_, err := NormalizeDate(in, fixedNow)
		var de *DateError
		if !errors.As(err, &de) {
			t.Fatalf("NormalizeDate(%q) err=%v; want *DateError", in, err)
		}
	}
}

func TestTimestampMonthOutOfRange(t *testing.T) {
	_, err := NormalizeDate("7/31/2017  4:25:37 PM", fixedNow)
	if err == nil || err.Error() != "<Date>: Month (31) out of range!" {
		t.Fatalf("err=%v", err)
	}
}

type call struct{ op, target, value string }

type fakePage struct{ calls []call }

func (f *fakePage) URL() string                             { return "" }
func (f *fakePage) Content(context.Context) (string, error) { return "", nil }
func (f *fakePage) Fill(_ context.Context, id, v string) error {
	f.calls = append(f.calls, call{"fill", id, v})
	return nil
}
func (f *fakePage) Select(_ context.Context, id, v string) error {
	f.calls = append(f.calls, call{"select", id, v})
	return nil
}
func (f *fakePage) Click(_ context.Context, sel string) error {
	f.calls = append(f.calls, call{"click", sel, ""})
	return nil
}
func (f *fakePage) Navigate(context.Context, string) error { return nil }
func (f *fakePage) Eval(context.Context, string, any) (any, error) {
	return nil, nil
}

const formHTML = `<form>
<input id="LFIRSTNAME" type="text">
<input id="LDATEOFBIRTH" type="text">
<input id="IsCBLabel1" type="checkbox">
<input id="IsCBLabel2" type="checkbox" checked>
<select id="LGENDER"><option value="">--</option><option value="1"> Male </option><option value="2">Female</option></select>
<select id="lscCodeValue"><option value="AEP   ">Adult Education Program</option><option value="RSD   ">RLAP RSD</option></select>
<input id="twice"><input id="twice">
<select id="LCOUNTRY"><option value="SD">Sudan</option></select><select id="LCOUNTRY"><option value="SD">Sudan</option></select>
<input id="LARRIVAL"><input id="LARRIVAL">
<input id="IsCBDup" type="checkbox"><input id="IsCBDup" type="checkbox">
</form>`

func newInserter() (*Inserter, *fakePage) {
	p := &fakePage{}
	in := New(p, dom.MustParse(formHTML), nil).WithClock(func() time.Time { return fixedNow })
	return in, p
}

func TestInsertText(t *testing.T) {
	in, p := newInserter()
	if !in.Insert(context.Background(), ".Ahmed", "LFIRSTNAME", ByText) {
		t.Fatalf("insert failed: %v", in.Err())
	}
	if p.calls[0] != (call{"fill", "LFIRSTNAME", "Ahmed"}) {
		t.Fatalf("calls=%v", p.calls)
	}
	if in.Insert(context.Background(), "x", "twice", ByText) {
		t.Fatalf("insert into ambiguous id succeeded")
	}
	if in.Insert(context.Background(), "x", "missing", ByText) {
		t.Fatalf("insert into missing id succeeded")
	}
	if in.Insert(context.Background(), "", "LFIRSTNAME", ByText) {
		t.Fatalf("insert of empty value succeeded")
	}
}

func TestInsertDate(t *testing.T) {
	in, p := newInserter()
	if !in.Insert(context.Background(), "1-Mar-2017", "LDATEOFBIRTH", Date) {
		t.Fatalf("insert failed: %v", in.Err())
	}
	if p.calls[0] != (call{"fill", "LDATEOFBIRTH", "1/3/2017"}) {
		t.Fatalf("calls=%v", p.calls)
	}
	if in.Insert(context.Background(), "32/1/2020", "LDATEOFBIRTH", Date) {
		t.Fatalf("invalid date accepted")
	}
	var de *DateError
	if !errors.As(in.Err(), &de) {
		t.Fatalf("Err()=%v; want *DateError", in.Err())
	}
}

func TestInsertDropdown(t *testing.T) {
	in, p := newInserter()
	if !in.Insert(context.Background(), "male", "LGENDER", ByText) {
		t.Fatalf("by text failed: %v", in.Err())
	}
	if in.Insert(context.Background(), "Mal", "LGENDER", ByText) {
		t.Fatalf("partial option text matched")
	}
	if !in.Insert(context.Background(), "rsd   ", "lscCodeValue", ByCode) {
		t.Fatalf("by code failed: %v", in.Err())
	}
	if in.Insert(context.Background(), "RSD", "lscCodeValue", ByCode) {
		t.Fatalf("unpadded code matched")
	}
	want := []call{{"select", "LGENDER", "1"}, {"select", "lscCodeValue", "RSD   "}}
	if len(p.calls) != 2 || p.calls[0] != want[0] || p.calls[1] != want[1] {
		t.Fatalf("calls=%v", p.calls)
	}
}

func TestInsertCheckbox(t *testing.T) {
	in, p := newInserter()
	ctx := context.Background()
	if !in.Insert(ctx, "yes", "IsCBLabel1", ByText) {
		t.Fatalf("check failed")
	}
	// already checked in the snapshot: no click
	if !in.Insert(ctx, "TRUE", "IsCBLabel2", ByText) {
		t.Fatalf("noop check failed")
	}
	if !in.Insert(ctx, "no", "IsCBLabel2", ByText) {
		t.Fatalf("uncheck failed")
	}
	// state tracked after the first click
	if !in.Insert(ctx, "x", "IsCBLabel1", ByText) {
		t.Fatalf("repeat check failed")
	}
	if len(p.calls) != 2 {
		t.Fatalf("calls=%v; want two clicks", p.calls)
	}
	if p.calls[0].target != `[id="IsCBLabel1"]` || p.calls[1].target != `[id="IsCBLabel2"]` {
		t.Fatalf("calls=%v", p.calls)
	}
}

func TestInsertNeedsUniqueID(t *testing.T) {
	cases := []struct {
		name, value, id string
		mode            Mode
	}{
		{"text", "x", "twice", ByText},
		{"select", "Sudan", "LCOUNTRY", ByText},
		{"date", "1/2/2000", "LARRIVAL", Date},
		{"checkbox", "yes", "IsCBDup", ByText},
		{"missing", "x", "nowhere", ByText},
	}
	for _, c := range cases {
		in, p := newInserter()
		if in.Insert(context.Background(), c.value, c.id, c.mode) {
			t.Fatalf("%s: insert into %q succeeded", c.name, c.id)
		}
		if !errors.Is(in.Err(), errNotUnique) {
			t.Fatalf("%s: Err()=%v; want errNotUnique", c.name, in.Err())
		}
		if len(p.calls) != 0 {
			t.Fatalf("%s: calls=%v", c.name, p.calls)
		}
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"", "false", "No", "n", "0", " "} {
		if Truthy(v) {
			t.Fatalf("Truthy(%q)=true", v)
		}
	}
	for _, v := range []string{"x", "yes", "TRUE", "1"} {
		if !Truthy(v) {
			t.Fatalf("Truthy(%q)=false", v)
		}
	}
}
