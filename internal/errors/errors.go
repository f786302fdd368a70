package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/remote"
	"github.com/julianstephens/habitquest/internal/revival"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/tracker"
)

// UserMessage turns the engine's sentinel errors into text for the terminal.
// Anything it does not recognise is printed as is.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, revival.ErrInsufficientBalance):
		return fmt.Sprintf("not enough leaf dollars, a revival costs %d", revival.Cost)
	case errors.Is(err, revival.ErrAlreadySatisfied):
		return "that day is already complete"
	case errors.Is(err, revival.ErrInvalidDate):
		return "only past days since the habit started can be revived"
	case errors.Is(err, tracker.ErrInvalidDate):
		return "only days between the habit's start and today can be logged"
	case errors.Is(err, remote.ErrUnauthorized):
		return fmt.Sprintf("the remote rejected the api token, store a new one with '%s remote login'", constants.AppName)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("%v (see '%s list')", err, constants.AppName)
	default:
		return err.Error()
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", UserMessage(err))
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
