package common

// Level classifies a Notice for rendering.
type Level string

const (
	// LevelError marks a message the user must act on.
	LevelError Level = "error"
	// LevelSuccess marks an acknowledgment.
	LevelSuccess Level = "success"
)

// Notice is a single user-facing message with its classification.
type Notice struct {
	Text  string `json:"text"`
	Level Level  `json:"level"`
}

// ErrorNotice builds a notice classified as an error.
func ErrorNotice(text string) Notice {
	return Notice{Text: text, Level: LevelError}
}

// SuccessNotice builds a notice classified as a success.
func SuccessNotice(text string) Notice {
	return Notice{Text: text, Level: LevelSuccess}
}

// IsError reports whether the notice is an error.
func (n Notice) IsError() bool {
	return n.Level == LevelError
}
