package models

type StreamOutcome string

const (
	StreamOutcomeCompleted StreamOutcome = "completed"
	StreamOutcomeAborted   StreamOutcome = "aborted"
	StreamOutcomeFailed    StreamOutcome = "failed"
)

// ArchiveSource описывает каталог, найденный по идентификатору архива.
type ArchiveSource struct {
	Identifier string `json:"identifier"`
	Root       string `json:"root"`
	Dir        string `json:"dir"`
}

func (s ArchiveSource) Filename() string {
	return s.Identifier + ".zip"
}

type StreamResult struct {
	Outcome StreamOutcome `json:"outcome"`
	Bytes   int64         `json:"bytes"`
	Chunks  int           `json:"chunks"`
	Err     error         `json:"-"`
	ExitErr error         `json:"-"`
}
