// Package http provides HTTP handlers and middleware for the to-do API.
//
// The router exposes the following endpoints:
//   - POST /api/v1/register, POST /api/v1/login: create an account or start a
//     session. Body: {"email","password"[,"name"]}. Response: {"user","session"}
//     where session carries {"accessToken","refreshToken","expiresAt","user"}.
//   - POST /api/v1/refresh: rotates the refresh token. Body: {"refreshToken"}.
//     Response: {"session"}.
//   - POST /api/v1/logout: revokes the refresh token (body optional) and returns
//     204 No Content. GET /api/v1/me returns the authenticated account.
//   - GET/PUT /api/users/me and GET/PUT /api/users/me/preferences: profile and
//     preference endpoints exchanging the `userDTO` and `preferencesDTO` payloads
//     defined in dto.go.
//   - GET/POST /api/{userId}/tasks, GET/PUT/DELETE /api/{userId}/tasks/{taskId},
//     PATCH /api/{userId}/tasks/{taskId}/complete: task endpoints exchanging the
//     `taskDTO` payload. The path userId must match the authenticated principal;
//     a mismatch yields 403 without touching the service layer.
//
// All endpoints except register, login, and refresh require a Bearer access
// token. Request/response DTOs live alongside their handlers so tests and
// documentation share the same ground truth.
package http
