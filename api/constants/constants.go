package constants

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Upload form and query keys
const (
	FormFileField   = "file"
	QueryFormat     = "format"
	ExportFileName  = "reconciliation.xlsx"
	RouteVarSide    = "side"
	HealthStatusOK  = "ok"
	ClearConfirmKey = "confirm"
)
