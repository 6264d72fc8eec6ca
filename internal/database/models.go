package database

// Item is a collected content item row.
type Item struct {
	ID            int64
	NativeID      *string
	Source        string
	URL           string
	Title         string
	Body          *string
	Engagement    int
	Comments      int
	PublishedDate *string
	PeriodID      *string
	Relevance     float64
	Vendors       []string
	Selected      bool
	BodyFetched   bool
	CollectedAt   *string
}

// SourceRecord is a persisted citation id and the item facts behind it.
type SourceRecord struct {
	ID        int64
	PeriodID  string
	SourceID  string
	Title     string
	URL       string
	Source    string
	Snippet   *string
	Relevance float64
	Vendors   []string
	CreatedAt *string
}

// InsightRow is a stored, citation-linked insight.
type InsightRow struct {
	ID                int64
	PeriodID          string
	Text              string
	SourceIDs         []string
	ConfidenceScore   float64
	ConfidenceLevel   string
	ConfidenceFactors []string
	Repaired          bool
	Flagged           bool
	CreatedAt         *string
}

// Report is the assembled pricing report for a period.
type Report struct {
	ID              int64
	PeriodID        string
	RunID           *string
	Summary         string
	BodyMarkdown    string
	Recommendations []string
	VendorLandscape map[string]string
	Fallback        bool
	ItemCount       int
	SelectedCount   int
	VendorsAnalyzed int
	PricingSignals  int
	GeneratedAt     *string
}

// WatchedVendor is a vendor watchlist entry.
type WatchedVendor struct {
	ID        int64
	Name      string
	Tier      int
	Aliases   []string
	IsActive  bool
	CreatedAt *string
	UpdatedAt *string
}

// RunReport holds metadata about a pipeline run.
type RunReport struct {
	ID            int64
	PeriodID      string
	RunID         *string
	GeneratedAt   *string
	ItemCount     int
	SelectedCount int
	InsightCount  int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalItems       int
	SelectedItems    int
	ItemsByForum     int
	ItemsBySearch    int
	PeriodsWithItems int
	Reports          int
	Insights         int
	TotalVendors     int
	ActiveVendors    int
}
