package domain

// Project is an immutable value representing a registered site. At most one
// active crawl exists per project: ActiveCrawlID is set exactly when an
// active (pending or crawling) CrawlJob exists for it. The storage layer is
// responsible for keeping that pairing consistent; this package only judges
// eligibility from the value it is handed.
type Project struct {
	// ID is the unique identifier of the project.
	ID ProjectID
	// OwnerID identifies the user who owns the project.
	OwnerID UserID
	// Domain is the site this project audits, e.g. "example.com".
	Domain string
	// ActiveCrawlID points at the currently active crawl, if any.
	ActiveCrawlID *CrawlID
}

// IsOwnedBy reports whether the project belongs to the given user.
func (p Project) IsOwnedBy(userID UserID) bool {
	return p.OwnerID == userID
}

// CanStartCrawl reports whether a new crawl may be started: no crawl is
// currently active and the owner has crawl credit left. Plan limits on page
// count are checked per page at ingestion time via Plan.CanAddPage, not here.
func (p Project) CanStartCrawl(creditsRemaining int) bool {
	return p.ActiveCrawlID == nil && creditsRemaining > 0
}
