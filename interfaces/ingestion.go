package interfaces

import "context"

// IngestSummary reports what one ingestion run did.
type IngestSummary struct {
	NewCount      int
	Skipped       int
	NewContentIDs []string
}

type IngestionService interface {
	// Run performs one incremental fetch pass: read the cursor, inspect new
	// UIDs, deduplicate, store, then advance the cursor once at the end.
	Run(ctx context.Context) (*IngestSummary, error)
}
