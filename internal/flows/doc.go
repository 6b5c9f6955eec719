// Package flows holds the orchestration for every auth Engine operation.
//
// Each Run* function takes a typed dependency struct of plain funcs,
// sentinel errors, metric ids and audit event names, and drives one state
// transition: register, confirm or resend verification, login, request and
// verify a recovery code, reset or change a password, and authenticate a
// bearer credential. The root package builds the dependency structs and owns
// every resource they reference.
//
// Flow functions hold no state between calls and never import the root
// package.
package flows
