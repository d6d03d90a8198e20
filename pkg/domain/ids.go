package domain

import "github.com/google/uuid"

// UserID uniquely identifies a user (project owner) within the system.
// It is a thin wrapper around uuid.UUID to provide type safety at the domain layer.
type UserID uuid.UUID

// ProjectID uniquely identifies a registered project.
type ProjectID uuid.UUID

// CrawlID uniquely identifies a crawl job.
type CrawlID uuid.UUID

// PageID uniquely identifies a scored page within a crawl.
type PageID uuid.UUID
