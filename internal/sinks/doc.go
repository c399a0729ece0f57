// Package sinks delivers serialized backups to their destination.
//
// Three sinks are provided: FileSink writes to a local directory, EmailSink
// posts to an HTTP mail relay and S3Sink uploads to a bucket. Sinks with a
// size limit call backup.CheckSize before doing any I/O, so an oversized
// backup fails with ErrSizeLimit and nothing is sent.
package sinks
