// Package httpapi exposes the marketplace over HTTP with JSON envelopes.
//
// Successful responses look like {"success":true,"message":...,"data":...}
// and failures like {"success":false,"code":...,"message":...}. Status codes
// follow the error kind, with two login specifics: success is 202 and a
// wrong password is 406.
//
// Register, profile update and room create/update accept multipart forms so
// images can be uploaded alongside the fields.
package httpapi
