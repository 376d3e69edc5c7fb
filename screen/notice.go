package screen

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a short message shown once, like a toast.
type Notice struct {
	Level Level
	Text  string
}

type Route string

const (
	RouteLogin    Route = "login"
	RouteChatList Route = "chat_list"
)

// Outcome is what a form submission produces: a notice to show, the screen to
// go to next (empty to stay), and the error behind a failure.
type Outcome struct {
	Notice Notice
	Next   Route
	Err    error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func success(text string, next Route) Outcome {
	return Outcome{Notice: Notice{Level: LevelInfo, Text: text}, Next: next}
}

func failure(err error, text string) Outcome {
	return Outcome{Notice: Notice{Level: LevelError, Text: text}, Err: err}
}
