// Package domain contains the pure decision and derivation rules of the
// service: subscription tiers and their entitlements, the crawl lifecycle
// state machine, project eligibility, and page score aggregation. Everything
// in this package is a side-effect-free computation over immutable values
// (no storage, no clock reads, no logging), so the same rules behave
// identically whether they are invoked from an API handler, a background
// worker, or a test.
package domain
