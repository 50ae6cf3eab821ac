/*
Package httpserver lets an operator answer cleanse confirmations remotely.

RemoteConfirmer implements the Confirmer port: every prompt becomes a pending
question and Confirm blocks until the question is answered through the HTTP API
or the session context ends. Only one question is pending at a time.

# API

	GET  /api/pending        pending question as JSON, 204 when none
	POST /api/pending/{id}   answer it with {"confirm": true} or {"confirm": false}

Answers for an unknown or stale id return 404; a second answer for the same
question returns 409.

# Health endpoints

	GET /livez    liveness
	GET /readyz   readiness, 503 once shutdown has started

Requests are logged with the flashbots httplogger slog middleware.
*/
package httpserver
