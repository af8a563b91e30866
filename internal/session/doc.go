// Package session implements the interactive command protocol over a
// long-lived interpreter process.
//
// Each command cycle submits one reader task per output stream to a small
// worker pool, writes the command line, and waits up to MaxWait for the
// stdout task to judge the command finished (see package stream). Output
// on the error stream turns the result into an error result. Scripts are
// materialized to temporary files ending in a sentinel line so their end is
// detected exactly.
package session
