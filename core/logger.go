package core

// Logger logs a message with optional arguments.
// expected args: error, map[string]interface{}, user.User (the logged in user, at most one).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
