package core

type (
	// Logger is implemented by every logging backend used by the apps and services.
	// args may carry errors, maps of extra data or a Person.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Person identifies the authenticated caller attached to a log entry.
	Person struct {
		ID       string
		Username string
		Email    string
	}
)

type nopLogger struct{}

// NopLogger discards everything except Fatal, which panics.
var NopLogger Logger = nopLogger{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(msg string, _ ...interface{}) {
	panic(msg)
}
