// Package crawler implements the concurrent crawl coordinator: a bounded,
// deduplicated, depth-limited traversal of a link graph executed by a pool
// of parallel workers. Fetching and HTML parsing are supplied by external
// collaborators; this package owns scheduling, deduplication, the page
// budget, and termination detection.
package crawler
