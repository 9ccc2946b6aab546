// Package cli implements the pulse command-line interface.
//
// Commands are Cobra definitions that parse flags and hand off to a
// *Command function taking an io.Writer, so output can be captured in tests.
// The long-running commands share one wiring path, buildCore, which turns
// the loaded config into a poller with its sources, alert engine, history
// ring and (optionally) alert journal already subscribed.
//
// # Command Structure
//
//	pulse run                 - Poll headless, print alert events
//	pulse watch               - Terminal dashboard
//	pulse serve               - HTTP + Socket.IO push server
//	pulse snapshot            - One sample, text or --json
//	pulse rules [enable|disable <id>] - List or toggle alert rules
//	pulse alerts              - Recent events from the journal
//	pulse init                - Write .pulse.yaml
//	pulse version             - Build information
//
// # Flag Handling
//
// Global flags (--config, --debug, --no-color) live on the root command.
// --debug sets PULSE_DEBUG so every component's env logger emits debug
// lines. Commands that run the poller share --interval via AddPollFlags.
//
// # Machine Output
//
// --json output is wrapped in JSONEnvelope. When a JSON command fails,
// Execute writes the error through the same envelope with a stable code
// from ErrorToJSON.
package cli
