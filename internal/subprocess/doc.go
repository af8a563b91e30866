// Package subprocess runs the interpreter child process behind a session.
//
// A Process owns the child's pipes: it writes command lines to stdin under a
// mutex and runs one stream.Pump per output pipe for the process lifetime.
// Killing is tree-wide, so helpers the interpreter spawned do not keep the
// output pipes open after shutdown.
package subprocess
