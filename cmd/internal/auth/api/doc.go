// Package authapi is the HTTP boundary of the auth service.
//
// Routes (under the configured base path):
//
//	POST   /auth/register
//	POST   /auth/login      sets accessToken and refreshToken cookies
//	POST   /auth/refresh    reads the refreshToken cookie
//	POST   /auth/logout
//	GET    /session
//	GET    /session/current
//	DELETE /session/{id}
//
// Errors use the envelope {"error":{"code","message","fields"}} with the code
// taken from the apperr kind.
package authapi
