package pipeline

// PageBreakMarker precedes every page's text in the aggregate output, including the first.
const PageBreakMarker = "\n\n--- PAGE BREAK ---\n\n"

// Stage names used in StageError and log fields.
const (
	StageProvision = "provision"
	StageUpload    = "upload"
	StageDetect    = "detect"
	StageAssemble  = "assemble"
)

// outputFileMode is the permission of the aggregate text file.
const outputFileMode = 0o644
