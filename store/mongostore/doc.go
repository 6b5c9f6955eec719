// Package mongostore persists accounts, verification records, rooms and
// enquiries in MongoDB.
//
// A single Store value implements roomrent.AccountStore, listing.Store and
// enquiry.Store. Document ids are ObjectIDs exposed as hex strings; an id
// that is not valid hex is reported as the matching not-found error.
package mongostore
