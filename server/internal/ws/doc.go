// Package ws pushes the job listing to browsers over WebSocket.
//
// New(store, interval) creates a Hub. Hub.Run(ctx) checks the store every
// interval and broadcasts when the job map has changed; it closes all
// connections when ctx is cancelled. Hub.ServeHTTP upgrades the request and
// sends the current listing immediately.
//
// Message format:
//
//	{
//	  "event": "jobs",
//	  "data":  { "jobs": { "<token>": { ... } }, "generated_at": "..." }
//	}
//
// The data object has the same schema as the listing served by the API.
// The server mounts the hub at /ws/stream.
package ws
