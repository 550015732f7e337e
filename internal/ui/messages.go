package ui

import (
	"time"

	"replctl/internal/session"
)

// Bubble Tea messages

// runDoneMsg carries the result of one snippet.
type runDoneMsg struct {
	code string
	res  *session.Result
	err  error
	took time.Duration
}

// varJSONMsg carries a variable fetched through the JSON bridge.
type varJSONMsg struct {
	name string
	text string
	err  error
}

// helpMsg carries the rendered help text.
type helpMsg string

// generic notifications
type noticeMsg string
