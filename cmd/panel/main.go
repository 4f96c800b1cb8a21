// Command panel is the terminal dashboard for customers, members and mail.
//
// Usage:
//
//	panel                   Run the dashboard (same as "panel run")
//	panel run               Run the dashboard
//	panel serve             Serve the demo API without the UI
//	panel events            JSONL event log viewer
//	panel config            Show or initialize the config file
package main

import (
	"fmt"
	"os"
)

const usage = `panel - terminal dashboard

Usage:
  panel [command] [flags]

Commands:
  run         Run the dashboard (default)
  serve       Serve the demo API on mock.addr without the UI
  events      JSONL event log viewer
  config      Show the effective config, or write defaults with -init

Environment:
  PANEL_API_URL        Resource API base URL (default: embedded demo API)
  PANEL_PAGE_SIZE      Rows per page
  PANEL_SEARCH_MODE    substring or fuzzy
  PANEL_FIELD_POLICY   any or all
  PANEL_FETCH_TIMEOUT  Per-request timeout, e.g. 5s
  PANEL_LOG_LEVEL      debug, info, warn, error
  PANEL_SERVE_ADDR     Listen address for "panel serve"
  PANEL_MOCK_LATENCY   Artificial demo API latency, e.g. 300ms
  PANEL_EVENTS         false disables the JSONL event log
  PANEL_TRACE          Log every view derivation to the event log

Run 'panel <command> -h' for command-specific help.
`

func main() {
	cmd := "run"
	if len(os.Args) >= 2 && !isRunFlag(os.Args[1]) {
		cmd = os.Args[1]
		// Strip the program name + subcommand so flag sets see only their flags
		os.Args = os.Args[1:]
	}

	switch cmd {
	case "run":
		runDashboard()
	case "serve":
		runServe()
	case "events":
		runEvents()
	case "config":
		runConfig()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "panel: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

// isRunFlag reports whether arg is a flag for the default run command,
// as in "panel -api http://localhost:8787".
func isRunFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return false
	}
	return len(arg) > 1 && arg[0] == '-'
}
