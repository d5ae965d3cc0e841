// Package dto contains the request and response bodies of the REST API.
//
// Naming convention:
//   - Request types: <Action><Resource>Request
//   - Response types: <Resource>Response
package dto
