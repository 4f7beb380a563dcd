package model

// ImportReport summarizes the outcome of importing one or more snapshot
// files. Warnings carry skipped-row detail; Errors mark files that were not
// persisted. Success stays true as long as no file produced errors.
type ImportReport struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	ProcessedProjects int      `json:"processed_projects"`
	ProcessedEvents   int      `json:"processed_events"`
	Warnings          []string `json:"warnings"`
	Errors            []string `json:"errors"`
}
