/*
Package session serializes access to submissions.

A submission is read, modified and written back on every answer. The Manager
guarantees that only one such cycle runs per session ID at a time: locally with
a reference-counted mutex per session, and across replicas with an optional
ports.DistributedLocker.
*/
package session
