// Package output renders test runs for the paratest CLI.
//
// Formatters print a finished runner.Result as a table, JSON or YAML, and
// TextListener prints progress while the run is in flight.
//
// # Basic Usage
//
//	// Create a table formatter
//	formatter := output.NewFormatter(output.FormatTable)
//
//	// Format the result of a run
//	result, err := tree.Run(ctx, root, logger)
//	formatter.FormatResult(os.Stdout, result)
//
//	// Format arbitrary data, for example the effective configuration
//	formatter.Format(os.Stdout, map[string]interface{}{"mode": "shared"})
//
// # Options
//
// Formatters can be configured with functional options:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// # Formatters
//
// Table Formatter:
//   - Borderless tables with tab-separated columns, one row per test
//   - Rows ordered by suite, then test name
//   - Wide mode adds the error message of failed tests
//   - Summary line with passed, failed, skipped and ignored counts
//
// JSON and YAML Formatters:
//   - The same document: summary, tests and failures
//   - Suitable for scripting and CI artifacts
//
// # Progress
//
// TextListener prints "." when a test starts, "E" on a failure and "I" for an
// ignored test, followed by the failure list and the totals. It does not
// declare thread safety, so the notification bus serialises its callbacks.
//
// # Color Support
//
// Colors are automatically enabled for TTY outputs and can be disabled with
// WithNoColor(true). Output to pipes and files is never colored.
//
// Color scheme:
//   - Suite and test names: Cyan, Bold
//   - Passed: Green
//   - Failed: Red, Bold
//   - Skipped and ignored: Yellow
//   - Headers: White, Bold
//   - Durations: Blue
package output
