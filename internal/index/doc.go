// Package index runs sources through the anagram pipeline into a store and
// answers queries against it.
//
// Ingestion is serialized in-process by a mutex and across processes by an
// optional Locker. Each source is registered and indexed in one store
// transaction; a source that fails part way is rolled back and can be
// ingested again. Lookups go through an LRU cache that is purged whenever a
// source is committed or the index is reset.
package index
