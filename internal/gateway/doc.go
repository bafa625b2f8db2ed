// Package gateway exposes the WhatsApp session over HTTP.
//
// # Endpoints
//
//   - POST /send         - send {"number","message"}; 200 {"success":true}
//   - GET  /health       - liveness, session phase and recovered panic count
//   - GET  /health/ready - 200 when the session can send, 503 otherwise
//
// # POST /send
//
//	curl -X POST localhost:3000/send \
//	    -d '{"number":"15551234567","message":"hi"}'
//
// Responses:
//
//	200 {"success":true}
//	400 {"error":"number is required"}
//	503 {"error":"Client not ready or session inactive."}
//	500 {"error":"<provider error>"}
//
// The number is normalized to a chat id ("15551234567@c.us") by the session
// manager. There is no authentication; bind server.http_addr to a local
// interface.
package gateway
