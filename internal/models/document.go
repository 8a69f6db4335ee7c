// Package models defines core data structures for documents, terms, expansion plans, and search results.
package models

import "time"

// Document represents an indexed document. Only Title and Content are searchable.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	IndexedAt time.Time `json:"indexed_at,omitempty"`
}

// DocumentInput is the input for indexing a document over the API.
type DocumentInput struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}
