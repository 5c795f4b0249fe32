package utils

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// LogErrorToFile appends one line describing a failed operation to the
// error log file, when one is configured. An empty path disables it.
// Logging failures are reported on slog but never propagate.
func LogErrorToFile(path, operation string, err error) {
	if path == "" || err == nil {
		return
	}
	f, openErr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if openErr != nil {
		slog.Warn("Could not open error log file", "path", path, "error", openErr)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%s [%s] %v\n", time.Now().UTC().Format(time.RFC3339), operation, err)
	if _, writeErr := f.WriteString(line); writeErr != nil {
		slog.Warn("Could not append to error log file", "path", path, "error", writeErr)
	}
}
