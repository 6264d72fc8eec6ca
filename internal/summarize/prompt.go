package summarize

import (
	"fmt"
	"strings"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
)

const truncationMarker = "\n[CONTENT TRUNCATED]\n"

// itemDelimiter separates item blocks in the serialized corpus.
const itemDelimiter = "\n---\n"

const analysisPrompt = `You are a pricing intelligence analyst serving IT resellers and managed service providers. Analyze the content items below, which were collected from community forums and news searches.

CITATION RULES - READ CAREFULLY:
- Every key insight MUST end with exactly one citation tag in square brackets, naming a source id from the content below.
- Correct: "Broadcom doubled VCSP minimum commitments this quarter [forum_2]"
- Incorrect: "Broadcom doubled VCSP minimum commitments this quarter" (no citation tag)
- Incorrect: "Broadcom doubled VCSP minimum commitments this quarter [source 2]" (not a listed source id)
- Only cite ids that appear in the content items below. Do not invent ids.

CONTENT ITEMS:
%s

Focus on pricing changes, licensing shifts, partner program changes, renewal cost movements and vendor-specific experiences. Prefer insights with specific numbers, percentages or dollar amounts.

Respond with ONLY this JSON structure (no other text):
{
    "executive_summary": "2-3 sentence summary of the current pricing landscape",
    "key_insights": [
        "Specific insight with numbers where available [forum_1]",
        "Another insight citing its source [search_2]"
    ],
    "recommendations": [
        "Actionable recommendation for resellers and MSPs"
    ],
    "vendor_landscape": {
        "VendorName": "One sentence on this vendor's current pricing trend"
    }
}`

// BuildPrompt serializes the selected items into id-tagged blocks and wraps
// them in the analysis instruction template. When the serialized items
// exceed the configured character ceiling the block list is cut at a block
// boundary and an explicit truncation marker is appended, so the model is
// never shown a silently incomplete corpus.
func BuildPrompt(items []content.Item, ids []string, cfg config.Prompt) string {
	var sb strings.Builder
	truncated := false

	for i, it := range items {
		block := formatItem(ids[i], it, cfg.ExcerptChars)
		if i > 0 {
			block = itemDelimiter + block
		}
		if cfg.MaxChars > 0 && sb.Len()+len(block) > cfg.MaxChars {
			truncated = true
			break
		}
		sb.WriteString(block)
	}
	if truncated {
		sb.WriteString(truncationMarker)
	}

	return fmt.Sprintf(analysisPrompt, sb.String())
}

// formatItem renders one item block. Field order is fixed: id and title,
// excerpt, vendors, relevance and engagement, publish date, source and url.
func formatItem(id string, it content.Item, excerptChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] %s\n", id, it.Title)
	if excerpt := it.Snippet(excerptChars); excerpt != "" {
		fmt.Fprintf(&b, "Excerpt: %s\n", excerpt)
	}
	if len(it.Vendors) > 0 {
		fmt.Fprintf(&b, "Vendors: %s\n", strings.Join(it.Vendors, ", "))
	}
	fmt.Fprintf(&b, "Relevance: %.1f | Engagement: %d | Comments: %d\n", it.Relevance, it.Engagement, it.Comments)
	if !it.Published.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", it.Published.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Source: %s | URL: %s\n", it.Source, it.URL)
	return b.String()
}
