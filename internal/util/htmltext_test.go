package util

import (
	"strings"
	"testing"
)

func TestStripHTMLPassthrough(t *testing.T) {
	plain := "=== FIR ===\nComplainant: Ravi Kumar\n"
	if got := StripHTML(plain); got != plain {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestStripHTMLIgnoresBareAngleBrackets(t *testing.T) {
	plain := "=== FIR ===\nWitness states speed was < 60 and > 40 km/h.\n"
	if got := StripHTML(plain); got != plain {
		t.Errorf("prose with comparison signs changed: %q", got)
	}
}

func TestStripHTMLExtractsText(t *testing.T) {
	html := `<html><head><style>p{color:red}</style></head><body>
<p>=== FIR ===</p>
<p>Complainant: Ravi Kumar</p>
<script>alert("x")</script>
</body></html>`

	got := StripHTML(html)
	if !strings.Contains(got, "=== FIR ===") || !strings.Contains(got, "Complainant: Ravi Kumar") {
		t.Errorf("visible text lost: %q", got)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "color:red") {
		t.Errorf("script/style leaked: %q", got)
	}
}

func TestStripHTMLKeepsLineStructure(t *testing.T) {
	html := `<div>=== FIR ===</div><div>FIR No: 42</div>`
	got := StripHTML(html)
	if !strings.Contains(got, "\n") {
		t.Errorf("block elements flattened to one line: %q", got)
	}
}
