package config

const (
	DateFormat = "2006-01-02"

	// Ingestion
	HeaderScanRows   = 50
	CombineSeparator = " | "
	UnnamedColumn    = "unnamed_%d"

	// Matching
	AmountTolerance = "0.01"

	// Services
	DefaultServicesFile      = "services.yaml"
	DefaultReconPort         = 6143
	DefaultMaxUploadMB       = 20
	DefaultShutdownSeconds   = 10
	DefaultLogFolder         = "./logs"
	DefaultRetentionSchedule = "@daily"
)
