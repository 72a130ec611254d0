// Package services defines the [QueueService] interface for the remote queue and implements it over HTTP.
//
// # Queue Service Interface
//
// The overlay consumes exactly three operations: fetch state, advance, and report duration.
// Hiding them behind an interface keeps the controller testable with scripted fakes.
//
// # HTTP Implementation
//
// [QueueClient] talks JSON to the queue service:
//
//	GET  /api/queue/{owner}           → QueueSnapshot
//	POST /api/queue/{owner}/advance   {"completedItemId": id|null} → QueueSnapshot
//	POST /api/queue/{owner}/duration  {"itemId": id, "durationSeconds": n}
//
// Requests go through a client-side [rate.Limiter] so a misbehaving overlay cannot hammer the server.
// An optional API token is attached as a bearer token through an [oauth2.StaticTokenSource].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response
//   - [shared.ErrQueueNotFound] : the owner has no queue (404)
//
// Non-2xx bodies of the form {"detail": "..."} are included in the error message.
package services
