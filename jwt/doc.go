// Package jwt issues and verifies the stateless bearer credentials that
// identify an account on authenticated requests.
package jwt
