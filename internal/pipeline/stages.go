package pipeline

// StageName is a typed identifier for a run stage.
type StageName string

const (
	StagePrepare StageName = "prepare"
	StageConvert StageName = "convert"
	StageTOC     StageName = "toc"
	StagePDF     StageName = "pdf"
	StageCleanup StageName = "cleanup"
)
