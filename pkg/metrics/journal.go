package metrics

// JournalMetrics observes the removal journal store.
type JournalMetrics interface {
	RecordAppend(err error)
	RecordEntries(n int)
}

// RecordJournalAppend records a journal write on m, if metrics are enabled.
func RecordJournalAppend(m JournalMetrics, err error) {
	if m != nil {
		m.RecordAppend(err)
	}
}
