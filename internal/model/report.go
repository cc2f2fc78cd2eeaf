package model

// ReportState is the completion state reported by a work performer.
type ReportState string

const (
	// ReportStatePending indicates the work performer has not finished yet.
	ReportStatePending ReportState = "pending"
	// ReportStateComplete indicates the work performer finished successfully.
	ReportStateComplete ReportState = "complete"
	// ReportStateFailed indicates the work performer failed.
	ReportStateFailed ReportState = "failed"
)

// TestSummary is the outcome of a verification test run.
type TestSummary string

const (
	// TestSummaryPass indicates all verification tests passed.
	TestSummaryPass TestSummary = "PASS"
	// TestSummaryFail indicates at least one verification test failed.
	TestSummaryFail TestSummary = "FAIL"
)

// Report is a work performer's answer to a status query.
type Report struct {
	State       ReportState
	Detail      string
	TestSummary TestSummary
}
