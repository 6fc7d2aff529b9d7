package tui

// RowUpdateMsg updates a single row's fields by column name.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// TransferMsg reports bytes received for the row identified by Key. Total is
// zero or negative when the server sent no length.
type TransferMsg struct {
	Key   string
	Read  int64
	Total int64
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
