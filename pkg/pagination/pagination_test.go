package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: DefaultLimit}},
		{Params{Page: -3, Limit: 5}, Params{Page: 1, Limit: 5}},
		{Params{Page: 4, Limit: 500}, Params{Page: 4, Limit: MaxLimit}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if got := p.Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
	meta := p.MetaFor(21)
	if meta.Pages != 3 || meta.Total != 21 || meta.Page != 3 || meta.Limit != 10 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if empty := p.MetaFor(0); empty.Pages != 0 {
		t.Fatalf("expected zero pages for empty result, got %d", empty.Pages)
	}
}

func TestParse(t *testing.T) {
	p := Parse("2", "abc")
	if p.Page != 2 || p.Limit != DefaultLimit {
		t.Fatalf("unexpected params %+v", p)
	}
	if p := Parse("", "15"); p.Page != 1 || p.Limit != 15 {
		t.Fatalf("unexpected params %+v", p)
	}
}
