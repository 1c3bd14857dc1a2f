package types

// ImportRunParams is the input of ImportRunWorkflow.
type ImportRunParams struct {
	InputURI      string   `json:"input_uri"`  // file:// or s3:// sheet; empty resumes the stored batch
	Settings      Settings `json:"settings"`   // used only when InputURI is set
	ReportURI     string   `json:"report_uri"` // where the error log goes (same schemes); optional
	ClearOnFinish bool     `json:"clear_on_finish"`
}

// DriveResult summarizes one DriveBatch activity run.
type DriveResult struct {
	RunID       string `json:"run_id"`
	Records     int    `json:"records"`
	ClientIndex int    `json:"client_index"`
	PageLoads   int    `json:"page_loads"`
	Messages    int    `json:"messages"`
}

// ReportParams instructs ExportReport where to write the error log.
type ReportParams struct {
	RunID     string `json:"run_id"`
	ReportURI string `json:"report_uri"`
}

// ReportResult is returned by ExportReport.
type ReportResult struct {
	URI   string `json:"uri"`
	Lines int    `json:"lines"`
}

// ImportRunResult is the output of ImportRunWorkflow.
type ImportRunResult struct {
	Drive   DriveResult   `json:"drive"`
	Report  *ReportResult `json:"report,omitempty"`
	Cleared bool          `json:"cleared"`
}
