// Package auth guards the status server's result endpoints.
//
// Check results can contain rows copied out of production tables, so
// /checks, /summary, /export and /health may be restricted to callers that
// present a static API key or a signed bearer token:
//
//	a := auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, "k-123")
//	mux.Handle("GET /checks", auth.Require(handler, a))
//
// Require tries each authenticator whose credentials appear on the
// request and answers 401 when none accepts them.
package auth
