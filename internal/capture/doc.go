// Package capture records HTTP exchanges into the capture store and reads
// them back for replay.
//
// A Recorder maps each exchange onto a row graph (request, response, cache
// entry, security info) and submits it through a graph.Engine in a single
// transaction. Repeated scalars such as URLs, header names and certificates
// are deduplicated through enum tables; header and certificate lists keep
// their order through association tables.
//
// Parts of an exchange may arrive late. Recorder.Begin returns an InFlight
// whose Commit waits for the response and cache entry; interrupting the
// Session stores whatever is still missing as null.
//
// A Replayer loads an exchange back, re-encodes its security info, and
// restores cache entries through a CacheWriter.
package capture
