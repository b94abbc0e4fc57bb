package system

import (
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger. The picker owns the terminal, so
// it is silent until SetOutput points it at a file.
var Logger = clog.NewWithOptions(io.Discard, clog.Options{
	ReportTimestamp: true,
	Prefix:          "ffpopup",
})

// SetOutput appends log records to path. debug lowers the level to Debug.
// The returned closer releases the file.
func SetOutput(path string, debug bool) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	Logger.SetOutput(f)
	if debug {
		Logger.SetLevel(clog.DebugLevel)
	}
	return f, nil
}
