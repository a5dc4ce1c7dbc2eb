package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/lunar/log"
)

func Example() {
	logger := log.New(os.Stdout, log.WithPretty(false), log.WithTimeLayout("none"))
	logger.Info("script complete", slog.String("script", "init.lua"))
	logger.Debug("not written at the default level")
	// Output: level=INFO msg="script complete" script=init.lua
}

func Example_json() {
	logger := log.New(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
		log.WithLevel(log.LevelTrace))

	logger.With(slog.String("chunk", "main")).Trace("call", slog.Int("depth", 1))
	// Output: {"level":"TRACE","msg":"call","chunk":"main","depth":1}
}
