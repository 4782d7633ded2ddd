// Package log wraps [log/slog] with a small, concurrency-safe logger whose
// configuration is applied through functional options.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("rendered", slog.String("template", name))
//
// Every level has a context-aware variant (for example [Logger.InfoContext]).
// The context-unaware variants use [DefaultContextProvider].
//
// Levels are [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn] and
// [LevelError]. Output is JSON or text, optionally colorized ("pretty").
//
// The package also keeps a process-wide default logger, configured with
// [Config] and used by the package-level functions such as [Error].
package log
