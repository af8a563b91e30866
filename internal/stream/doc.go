// Package stream drains interpreter output streams and decides when a command
// has finished.
//
// Interpreters driven over pipes never say "this command is done". Each
// session therefore runs one Pump per output stream, which feeds a Buffer for
// the lifetime of the process. The Buffer splits lines and releases a
// trailing fragment without a newline once it has been idle for the partial
// delay. Per command, the session creates a
// Task for each monitored stream. A Task polls the Buffer's readiness:
//
//   - Start phase: poll every WaitPause until a line is available. If nothing
//     arrives within MaxWait the task reports a timeout.
//   - Drain phase, interactive: take a line, wait WaitPause plus SettleDelay,
//     and finish as soon as the buffer is idle (the idle heuristic).
//   - Drain phase, script: take lines until one ends with the sentinel, which
//     is dropped from the output.
//
// The idle heuristic is racy by nature: a command that pauses its output for
// longer than WaitPause+SettleDelay is reported as finished. Scripts use the
// sentinel instead.
package stream
