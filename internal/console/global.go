package console

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ConsoleInstance is the process wide console.
var ConsoleInstance = &Console{
	Color: IsTTY(os.Stderr),
	Level: InfoLevel,
}

// SetLevel sets the minimum level written.
func SetLevel(level Level) {
	ConsoleInstance.Level = level
}

// SetColor sets whether to print colors.
func SetColor(color bool) {
	ConsoleInstance.Color = color
}

// SetGitHub switches workflow command output on or off.
func SetGitHub(enabled bool) {
	ConsoleInstance.GitHub = enabled
}

func Debug(msg string) { ConsoleInstance.Debug(msg) }
func Info(msg string)  { ConsoleInstance.Info(msg) }
func Warn(msg string)  { ConsoleInstance.Warn(msg) }
func Error(msg string) { ConsoleInstance.Error(msg) }

func Debugf(msg string, v ...any) { ConsoleInstance.Debugf(msg, v...) }
func Infof(msg string, v ...any)  { ConsoleInstance.Infof(msg, v...) }
func Warnf(msg string, v ...any)  { ConsoleInstance.Warnf(msg, v...) }
func Errorf(msg string, v ...any) { ConsoleInstance.Errorf(msg, v...) }

// Output writes a line of primary output to stdout.
func Output(s string) {
	ConsoleInstance.Output(s)
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
