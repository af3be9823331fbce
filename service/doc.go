// Package service orchestrates embedding and similarity search: it ensures a
// vector collection exists, embeds text records through an embeddings.Embedder,
// upserts them into a vectordb.Store and answers top-k queries.
//
// Every failure is an *Error whose Kind tells configuration, provider, store
// and validation problems apart.
package service
