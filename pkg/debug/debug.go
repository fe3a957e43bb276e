// Package debug holds the zerolog plumbing shared by the language server and
// the command line: record hooks, caller formatting and the console logger.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	rdebug "runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// TimeFormat is millisecond precision without a zone.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// skipFrames reads the frame offset requested with Event.CallerSkipFrame,
// which zerolog keeps unexported.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if !field.IsValid() {
		return 0
	}
	return int(field.Int())
}

// TimeHook stamps every record with the wall clock.
type TimeHook struct {
	Format string
	Now    func() time.Time
}

func (t TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	format := t.Format
	if format == "" {
		format = TimeFormat
	}
	e.Str("time", now().UTC().Format(format))
}

// CallerHook records the package, file and line that emitted the record.
type CallerHook struct {
	WithColor bool
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// SplitFuncName splits a runtime function name such as
// "github.com/a/b.(*T).M" into its package and its function part.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := max(strings.LastIndexByte(name, '/'), 0)

	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash

	pkg, function = name[:dot], name[dot+1:]
	if before, after, found := strings.Cut(pkg, ".("); found {
		pkg = before
		function = "(" + after + "." + function
	}
	return pkg, function
}

// FormatCaller renders pkg:file.go:line, trimming the directory of path.
func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprint(line)
}

// NewConsoleLogger builds the human facing logger used by the command line.
func NewConsoleLogger(w io.Writer, level zerolog.Level, noColor bool) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(console).
		Level(level).
		With().Timestamp().Logger().
		Hook(CallerHook{WithColor: !noColor})
}

// Version reports the module version baked into the binary.
func Version() string {
	info, ok := rdebug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "devel"
	}
	return info.Main.Version
}
