package constants

// Stage names the pipeline step a run was in when it produced its outcome.
type Stage string

// Stable values (stored in the history table; do not rename).
const (
	StageAcquisition Stage = "acquisition"
	StageExtraction  Stage = "extraction"
	StageValidation  Stage = "validation"
)

// RunStatus is the terminal status of an extraction run.
type RunStatus string

const (
	RunStatusOK     RunStatus = "OK"
	RunStatusFailed RunStatus = "FAILED"
)
