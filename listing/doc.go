// Package listing manages room listings: creation with image uploads,
// owner-only updates and deletes, search with filters and pagination, and
// the recently-added feed.
//
// Persistence is behind [Store] (MongoDB in store/mongostore) and images go
// to a blob.Store.
package listing
