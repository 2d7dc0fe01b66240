package constants

// ============================================================================
// REQUEST ERRORS
// ============================================================================

const (
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidRequestBody = "Invalid request body"
	ErrUnknownSide        = "side must be 'bank' or 'accounting'"
	ErrFileRequired       = "a file is required in the 'file' form field"
	ErrUploadTooLarge     = "uploaded file exceeds the configured size limit"
	ErrInvalidUpload      = "could not read the uploaded file"
	ErrFormatWrongSide    = "format %s produces %s records, not %s"
	ErrClearNotConfirmed  = "clearing data requires {\"confirm\": true}"
	ErrExportFailed       = "failed to build the reconciliation workbook"
	ErrInternal           = "internal error"
)

// ============================================================================
// RESULT MESSAGES
// ============================================================================

const (
	MsgFileLoaded          = "%s file processed: %d transactions loaded"
	MsgFileAlreadyLoaded   = "this %s file is already loaded; existing reconciliations were kept"
	MsgAutoMatched         = "automatic reconciliation completed: %d new matches"
	MsgAutoNoMatches       = "automatic reconciliation completed: no new matches with the current data"
	MsgManualMatched       = "manual reconciliation committed: %d pairs"
	MsgAmountWarningPrefix = "Warning: "
	MsgPairsReset          = "%d reconciliations removed"
	MsgDataCleared         = "all transactions and reconciliations were removed"
)
