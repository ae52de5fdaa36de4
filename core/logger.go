package core

// Logger is any leveled logger.
// expected args fmt: error, map[string]interface{}, account.Account...
// implementations decide what to do with each kind.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
