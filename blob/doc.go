// Package blob stores uploaded images. [Store] is the storage contract; the
// S3 implementation lives in blob/s3blob and [Memory] serves tests and local
// runs.
//
// [PrepareImage] validates an upload (extension, size, decodability) and
// renders its thumbnail before anything is written.
package blob
