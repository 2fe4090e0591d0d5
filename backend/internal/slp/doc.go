// Package slp queries Minecraft Java edition servers through the Server List
// Ping.
//
// Client runs the status and ping exchange through go-mc and decodes the
// status JSON, reporting the ping round trip as latency. Server answers the
// same exchange with a fixed status on go-mc's packet codec and exists for
// local development and tests.
package slp
