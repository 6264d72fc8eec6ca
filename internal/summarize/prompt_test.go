package summarize

import (
	"strings"
	"testing"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/sourceid"
)

func TestBuildPromptBlockFields(t *testing.T) {
	items, _, _ := testItems()
	ids, _ := sourceid.Assign(items)

	prompt := BuildPrompt(items, ids, config.Prompt{MaxChars: 150000, ExcerptChars: 800})

	// Every mandated field appears, in the fixed block order.
	fields := []string{
		"[forum_1] Broadcom doubles VCSP minimum commitment requirements",
		"Excerpt: Our VCSP renewal",
		"Vendors: VMware, Broadcom",
		"Relevance: 6.5 | Engagement: 153 | Comments: 56",
		"Published: 2026-08-29",
		"Source: forum | URL: https://reddit.com/r/msp/abc",
	}
	last := -1
	for _, f := range fields {
		i := strings.Index(prompt, f)
		if i < 0 {
			t.Fatalf("prompt missing %q\n%s", f, prompt)
		}
		if i < last {
			t.Errorf("field %q out of order", f)
		}
		last = i
	}

	// Blocks are separated by a delimiter line.
	if !strings.Contains(prompt, "\n---\n") {
		t.Error("expected delimiter line between item blocks")
	}
	if strings.Count(prompt, "\n---\n") != len(items)-1 {
		t.Errorf("expected %d delimiters, got %d", len(items)-1, strings.Count(prompt, "\n---\n"))
	}
}

func TestBuildPromptExcerptCapped(t *testing.T) {
	items, _, _ := testItems()
	items[0].Body = strings.Repeat("x", 2000)
	ids, _ := sourceid.Assign(items)

	prompt := BuildPrompt(items, ids, config.Prompt{MaxChars: 150000, ExcerptChars: 100})
	if strings.Contains(prompt, strings.Repeat("x", 101)) {
		t.Error("excerpt exceeds the configured cap")
	}
	if !strings.Contains(prompt, strings.Repeat("x", 100)) {
		t.Error("expected capped excerpt in prompt")
	}
}

func TestBuildPromptTruncatesAtBlockBoundary(t *testing.T) {
	items, _, _ := testItems()
	ids, _ := sourceid.Assign(items)

	// Budget fits only the first block.
	first := len(BuildPrompt(items[:1], ids[:1], config.Prompt{ExcerptChars: 800})) - len(BuildPrompt(nil, nil, config.Prompt{}))
	prompt := BuildPrompt(items, ids, config.Prompt{MaxChars: first + 10, ExcerptChars: 800})

	if !strings.Contains(prompt, "[CONTENT TRUNCATED]") {
		t.Error("expected truncation marker")
	}
	if !strings.Contains(prompt, "[forum_1]") {
		t.Error("first block should survive truncation")
	}
	if strings.Contains(prompt, "[search_1] Citrix") {
		t.Error("second block should be cut, not partially included")
	}
	// Instructions and citation rules are never truncated away.
	if !strings.Contains(prompt, "CITATION RULES") {
		t.Error("instructional template must survive truncation")
	}
}
