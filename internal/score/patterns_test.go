package score

import (
	"testing"

	"github.com/channelwatch/channelwatch/internal/config"
)

func testPatterns() config.Patterns {
	return config.Patterns{
		BusinessCritical: []string{"program closing", "end of life", "acquisition"},
		CriticalRegex:    []string{`(?i)(vmware|broadcom)\b.{0,60}\b(program|partner)\b.{0,60}\b(closing|ending|terminated)\b`},
		VendorExperience: []string{"experience with", "thoughts on"},
		Operational:      []string{"renewal", "quote"},
		Security:         []string{"vulnerability", "cve"},
		HighValue:        []string{"migration story", "cost breakdown"},
	}
}

func TestBusinessCriticalPhrase(t *testing.T) {
	m := NewMatcher(testPatterns())
	if !m.BusinessCritical("Heads up: Program Closing announced for resellers") {
		t.Error("expected phrase match")
	}
	if m.BusinessCritical("nothing urgent here") {
		t.Error("expected no match")
	}
}

func TestBusinessCriticalRegex(t *testing.T) {
	m := NewMatcher(testPatterns())
	if !m.BusinessCritical("Broadcom just told us the partner program is closing next month") {
		t.Error("expected compound regex match")
	}
	if m.BusinessCritical("Broadcom released a new driver") {
		t.Error("regex should not match without the compound signal")
	}
}

func TestInvalidRegexSkipped(t *testing.T) {
	p := testPatterns()
	p.CriticalRegex = append(p.CriticalRegex, "([invalid")
	m := NewMatcher(p)
	// Valid patterns still work.
	if !m.BusinessCritical("end of life for the product") {
		t.Error("valid patterns should survive an invalid sibling")
	}
}

func TestCriticalCount(t *testing.T) {
	m := NewMatcher(testPatterns())
	if n := m.CriticalCount("acquisition confirmed, end of life for the old SKU"); n != 2 {
		t.Errorf("expected 2 critical phrases, got %d", n)
	}
}

func TestSecondaryTopical(t *testing.T) {
	m := NewMatcher(testPatterns())
	if !m.SecondaryTopical("our renewal quote tripled") {
		t.Error("expected operational match")
	}
	if !m.SecondaryTopical("new CVE in the hypervisor") {
		t.Error("expected security match")
	}
	if m.SecondaryTopical("random chatter") {
		t.Error("expected no match")
	}
}

func TestVendorExperienceAndHighValue(t *testing.T) {
	m := NewMatcher(testPatterns())
	if !m.VendorExperience("Anyone have experience with Veeam support?") {
		t.Error("expected vendor-experience match")
	}
	if !m.HighValue("Full cost breakdown of our Proxmox migration") {
		t.Error("expected high-value match")
	}
}
