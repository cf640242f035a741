// Package http provides HTTP handlers and middleware for the pool booking API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"username","password"}. The
//     token is returned in the body together with the authenticated user and
//     also surfaced via the `X-Session-Token` header and a `session_token`
//     cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - GET /pools, POST /pools, GET/PATCH/DELETE /pools/{id},
//     PATCH /pools/{id}/update-status,
//     PATCH /pools/{id}/assign-employee/{employeeId},
//     PATCH /pools/{id}/remove-employee/{employeeId}: pool catalog endpoints
//     exchanging the `poolDTO` payload defined in pool_handler.go. Reads are
//     available to any authenticated principal while mutations require the
//     ADMIN role.
//   - GET /bookings, POST /bookings, GET /bookings/by-month?month=&year=,
//     GET/PATCH/DELETE /bookings/{id}: booking endpoints exchanging the
//     `bookingDTO` payload defined in booking_handler.go. The month listing and
//     single reads are open to ADMIN and MAINTAINER roles, everything else is
//     ADMIN only.
//   - GET /users, POST /users, GET/PATCH/DELETE /users/{id}: account management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//
// Role gates are applied as middleware when routes are registered, so handlers
// only deal with decoding, delegation, and response shaping. Request/response
// DTOs live alongside their respective handlers so tests and documentation
// share the same ground truth.
package http
