package models

import "fmt"

// Result is one search hit. Content holds the snippet or, after an
// optional scrape pass, the full readable page text.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// ErrStatus reports a non-2xx response from a search backend.
type ErrStatus struct {
	Code int
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("search API returned status %d", e.Code)
}

// Transient reports whether the failure is worth retrying.
func (e ErrStatus) Transient() bool {
	return e.Code == 429 || e.Code >= 500
}
