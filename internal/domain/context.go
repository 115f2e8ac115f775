package domain

// HostSnapshot captures environmental facts appended to analysis prompts and
// surfaced by the doctor command.
type HostSnapshot struct {
	OS             string
	Arch           string
	WorkingDir     string
	AvailableTools []string
}
