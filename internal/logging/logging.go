package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file written under the log directory.
const FileName = "packhouse.log"

// Options controls logger setup.
type Options struct {
	Verbose bool
	// Dir overrides LOGS_FOLDER and the binary-relative default.
	Dir string
	// Console defaults to os.Stderr.
	Console io.Writer
}

// Init installs the global logger with a console sink and a rotating file.
// The returned closer flushes the file sink.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	dir, err := resolveDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     90, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(consoleWriter(opts.Console), fileWriter)
	log.Logger = zerolog.New(multi).
		With().
		Timestamp().
		Logger()

	return fileWriter, nil
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	noColor := true
	if out == nil {
		out = os.Stderr
		fd := os.Stderr.Fd()
		noColor = !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
}

// resolveDir picks the log directory and checks that it is writable. Init
// runs before config.Load, so LOGS_FOLDER is read from the binary's .env here.
func resolveDir(dir string) (string, error) {
	exePath, exeErr := os.Executable()
	if dir == "" {
		if exeErr == nil {
			_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
		}
		dir = os.Getenv("LOGS_FOLDER")
	}
	if dir == "" {
		if exeErr == nil {
			dir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			dir = "logs"
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return "", fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return dir, nil
}
