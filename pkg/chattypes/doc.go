// Package chattypes defines the data structures shared across mcpchat.
//
// # Package Organization
//
// ## Transcript Types (unit_types.go)
//
//   - UnitKind: the kind of a transcript block (user, answer, reasoning, tool, system)
//   - Unit: one renderable block of the transcript
//
// ## Wire Types (event_types.go)
//
//   - EventType: the "type" discriminator of an inbound server frame
//   - Event: a decoded server frame
//
// ## Connection Types (connection_types.go)
//
//   - ConnState: lifecycle state of the backend socket
//
// ## Errors (errors.go)
//
//   - ErrNotConnected, ConnectionError, MalformedMessageError, SerializationError
//
// ## Theme Types (theme_types.go)
//
//   - ThemeFile, ThemeConfig, StyleConfig: YAML theme definitions
package chattypes
