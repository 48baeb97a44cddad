package css

import "testing"

func TestParseStylesheet_Rules(t *testing.T) {
	sheet := ParseStylesheet(`
		/* theme */
		@charset "utf-8";
		img.lazy, article img[data-src] { height: 240px; margin: 4px 0 }
		@font-face { font-family: x }
		#cover > img { display: none }
	`)
	if len(sheet.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(sheet.Rules))
	}
	if got := sheet.Rules[0].Declarations["margin-top"]; got != "4px" {
		t.Errorf("margin shorthand not expanded: margin-top=%q", got)
	}
	if got := sheet.Rules[1].Selector.Specificity; got != 12 {
		t.Errorf("article img[data-src] specificity = %d, want 12", got)
	}
	if sheet.Rules[2].Selector.Combinators[0] != Child {
		t.Error("expected a child combinator")
	}
}

func TestParseStylesheet_Media(t *testing.T) {
	sheet := ParseStylesheet(`
		img { height: 300px }
		@media screen and (max-width: 600px) { img { height: 120px } }
		@media print { img { display: none } }
		@media (orientation: portrait) { img { height: 1px } }
	`)
	if len(sheet.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(sheet.Rules))
	}
	q := sheet.Rules[1].Media
	if q == nil || q.MaxWidth != 600 || q.MinWidth != 0 {
		t.Fatalf("unexpected media query %+v", q)
	}
	if !q.Matches(600) || q.Matches(601) {
		t.Error("max-width bound should be inclusive")
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in    string
		ok    bool
		parts int
		spec  int
	}{
		{"img", true, 1, 1},
		{"*", true, 1, 0},
		{"#post .body img", true, 3, 111},
		{"ul>li+li~li", true, 4, 4},
		{`a[href^="https://xds.asia"]`, true, 1, 11},
		{"[lang|=en]", true, 1, 10},
		{"a:hover", false, 0, 0},
		{"img[lazy", false, 0, 0},
		{"> img", false, 0, 0},
		{"img >", false, 0, 0},
		{"div.", false, 0, 0},
	}
	for _, tt := range tests {
		sel, ok := ParseSelector(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseSelector(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if len(sel.Parts) != tt.parts || sel.Specificity != tt.spec {
			t.Errorf("ParseSelector(%q) = %d parts, specificity %d; want %d, %d",
				tt.in, len(sel.Parts), sel.Specificity, tt.parts, tt.spec)
		}
	}
}
