package contactsync

// Metrics receives accumulator events, implementations must be safe for concurrent use
type Metrics interface {
	PageMerged(added, dropped int)
	StaleDiscarded()
	FetchFailed()
	Reset()
}

type nopMetrics struct{}

func (nopMetrics) PageMerged(int, int) {}
func (nopMetrics) StaleDiscarded()     {}
func (nopMetrics) FetchFailed()        {}
func (nopMetrics) Reset()              {}
