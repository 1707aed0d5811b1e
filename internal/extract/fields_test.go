package extract

import (
	"reflect"
	"testing"
	"time"

	"github.com/claimpilot/claimpilot/internal/model"
)

func newTestExtractor() *FieldExtractor {
	return NewFieldExtractor(model.DefaultConfig().Rules)
}

func TestParseDateLayouts(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		token string
		want  time.Time
	}{
		{"05-01-2026", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5-1-2026", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05/01/2026", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2026-01-05", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05-Jan-2026", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05-01-2026 10:30", time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)},
		{"05-01-2026 10:30:45", time.Date(2026, 1, 5, 10, 30, 45, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := x.ParseDate(tt.token)
		if got == nil {
			t.Errorf("ParseDate(%q) = nil", tt.token)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}

	if got := x.ParseDate("not a date"); got != nil {
		t.Errorf("ParseDate(junk) = %v, want nil", got)
	}
}

func TestFirstDate(t *testing.T) {
	x := newTestExtractor()
	got := x.FirstDate("Accident near the flyover on 05-01-2026 around 10:30, reported 06-01-2026.")
	if got == nil || got.Day() != 5 || got.Month() != time.January {
		t.Fatalf("FirstDate = %v, want 5 Jan 2026", got)
	}
}

func TestVehicleRegs(t *testing.T) {
	x := newTestExtractor()

	// Spacing and punctuation inside a registration must not matter.
	regs := x.VehicleRegs("Vehicle: KA 01 AB 1234\nPolicy vehicle KA-01-AB-1234")
	if !reflect.DeepEqual(regs, []string{"KA01AB1234"}) {
		t.Errorf("regs = %v, want single KA01AB1234", regs)
	}

	regs = x.VehicleRegs("FIR vehicle KA01AB1234\nRC vehicle MH12XY9999")
	if !reflect.DeepEqual(regs, []string{"KA01AB1234", "MH12XY9999"}) {
		t.Errorf("regs = %v, want two distinct sorted registrations", regs)
	}
}

func TestPolicyPeriod(t *testing.T) {
	x := newTestExtractor()

	start, end, cov := x.PolicyPeriod("Coverage: Comprehensive\nPeriod: 01-04-2025 to 31-03-2026\n")
	if cov != model.CoverageComprehensive {
		t.Errorf("coverage = %s, want COMPREHENSIVE", cov)
	}
	if start == nil || end == nil {
		t.Fatalf("period = %v..%v, want both dates", start, end)
	}
	if start.Month() != time.April || end.Month() != time.March {
		t.Errorf("period = %v..%v", start, end)
	}

	_, _, cov = x.PolicyPeriod("Cover: TP Only\n")
	if cov != model.CoverageTPOnly {
		t.Errorf("coverage = %s, want TP_ONLY", cov)
	}

	_, _, cov = x.PolicyPeriod("Policy No: X-1\n")
	if cov != model.CoverageUnknown {
		t.Errorf("coverage = %s, want UNKNOWN", cov)
	}
}

func TestEstimateTotal(t *testing.T) {
	x := newTestExtractor()

	got := x.EstimateTotal("Bumper: 12,000\nLabour: 6,500\nTotal: 18,500\n")
	if got == nil || *got != 18500 {
		t.Errorf("EstimateTotal with Total line = %v, want 18500", got)
	}

	got = x.EstimateTotal("Bumper: 12,000\nLabour: 6,500\n")
	if got == nil || *got != 18500 {
		t.Errorf("EstimateTotal sum fallback = %v, want 18500", got)
	}

	if got := x.EstimateTotal("no figures here"); got != nil {
		t.Errorf("EstimateTotal without numbers = %v, want nil", got)
	}
}

func TestInferSeverity(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		narrative string
		fir       string
		want      model.Severity
	}{
		{"minor scratch on the door", "", model.SeverityMinor},
		{"rear-ended at a signal", "bumper damaged", model.SeverityModerate},
		{"head-on collision", "airbag deployed", model.SeverityMajor},
		{"minor scratch", "hit divider, radiator damaged", model.SeverityModerate},
		{"", "", model.SeverityMinor},
	}
	for _, tt := range tests {
		if got := x.InferSeverity(tt.narrative, tt.fir); got != tt.want {
			t.Errorf("InferSeverity(%q, %q) = %s, want %s", tt.narrative, tt.fir, got, tt.want)
		}
	}
}

func TestParseCompleteClaim(t *testing.T) {
	cfg := model.DefaultConfig().Rules
	s := NewSplitter(cfg)
	x := NewFieldExtractor(cfg)

	doc := `=== FIR ===
Complainant: Ravi Kumar
Vehicle No: KA01AB1234
Date: 05-01-2026 10:30
Rear-ended at the signal, bumper damage.
=== DRIVING_LICENSE ===
Name: Ravi Kumar
Valid To: 31-12-2027
=== RC_BOOK ===
Owner: Ravi Kumar
Registration: KA01AB1234
=== POLICY_COPY ===
Insured: Ravi Kumar
Coverage: Comprehensive
Period: 01-04-2025 to 31-03-2026
Vehicle: KA01AB1234
=== REPAIR_ESTIMATE ===
Bumper repair: 12,000
Total: 18,500
=== ACCIDENT_PHOTOS ===
Photo 1: rear bumper dent
`
	fields := x.Parse("Rear-ended at the signal on 05-01-2026.", s.Split(doc))

	if fields.IncidentDate == nil || fields.IncidentDate.Day() != 5 {
		t.Errorf("IncidentDate = %v", fields.IncidentDate)
	}
	if fields.LicenseValidTo == nil || fields.LicenseValidTo.Year() != 2027 {
		t.Errorf("LicenseValidTo = %v", fields.LicenseValidTo)
	}
	if fields.Coverage != model.CoverageComprehensive {
		t.Errorf("Coverage = %s", fields.Coverage)
	}
	if !reflect.DeepEqual(fields.Registrations, []string{"KA01AB1234"}) {
		t.Errorf("Registrations = %v", fields.Registrations)
	}
	if fields.NamedParty != "Ravi Kumar" {
		t.Errorf("NamedParty = %q", fields.NamedParty)
	}
	if fields.EstimateTotal == nil || *fields.EstimateTotal != 18500 {
		t.Errorf("EstimateTotal = %v", fields.EstimateTotal)
	}
	if fields.Severity != model.SeverityModerate {
		t.Errorf("Severity = %s", fields.Severity)
	}
}
