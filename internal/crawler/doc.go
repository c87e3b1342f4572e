// Package crawler defines the records, queue items, and collaborator interfaces
// shared by the fetcher, the link extractor, and the pipeline that joins them.
package crawler
