package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/pkg/logging/logutil"
	"github.com/grovetools/ckanconsole/pkg/paths"
	"github.com/grovetools/ckanconsole/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// TailedLine is one line of log output from a component's log file.
type TailedLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the console's log files",
		Long: `Prints the newest log file of each component (bridge, console, cli, ...).
Log files live in the console's log directory unless logging.file.path is
configured.`,
		Example: `# Follow the bridge log
ckan-console logs -f --component bridge

# Last 50 lines of every component as JSON lines
ckan-console logs --tail 50 --json`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}

	cmd.Flags().StringSlice("component", nil, "Only show these components (comma-separated)")
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of each file (default: all)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)
	opts := cli.GetOptions(cmd)

	components, _ := cmd.Flags().GetStringSlice("component")
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")

	files, err := logutil.FindLogFiles(components)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No log files found in %s\n", paths.LogDir())
		return nil
	}

	ctx := commandContext(cmd)
	lineChan := make(chan TailedLine, 100)
	var wg sync.WaitGroup

	for component, path := range files {
		logger.WithFields(logrus.Fields{"component": component, "log_file": path}).Debug("Tailing log file")
		wg.Add(1)
		go func(component, path string) {
			defer wg.Done()
			if err := tailFile(ctx, component, path, follow, tailLines, lineChan); err != nil {
				logger.WithError(err).WithField("log_file", path).Warn("Failed to tail log file")
			}
		}(component, path)
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	out := cmd.OutOrStdout()
	for tailed := range lineChan {
		if opts.JSONOutput {
			printLogJSON(out, tailed)
		} else {
			printLogText(out, tailed)
		}
	}
	return nil
}

// tailOffset returns the byte offset at which the last n lines of path
// start. A negative n means the whole file.
func tailOffset(path string, n int) (int64, error) {
	if n < 0 {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	end := len(data)
	if end > 0 && data[end-1] == '\n' {
		end--
	}
	offset := end
	for i := 0; i < n; i++ {
		idx := bytes.LastIndexByte(data[:offset], '\n')
		if idx < 0 {
			return 0, nil
		}
		offset = idx
	}
	if n == 0 {
		return int64(len(data)), nil
	}
	return int64(offset + 1), nil
}

// tailFile sends the lines of path to lineChan until the end of the file
// or, when following, until ctx is done.
func tailFile(ctx context.Context, component, path string, follow bool, tailLines int, lineChan chan<- TailedLine) error {
	offset, err := tailOffset(path, tailLines)
	if err != nil {
		return err
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.Stop()
		case <-done:
		}
	}()

	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		select {
		case lineChan <- TailedLine{Component: component, Line: line.Text}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// printLogJSON prints a log line in JSON format, enriched with the component name.
func printLogJSON(w io.Writer, tailed TailedLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tailed.Line), &logMap); err != nil {
		logMap = map[string]interface{}{"raw_line": tailed.Line}
	}
	if _, ok := logMap["component"]; !ok {
		logMap["component"] = tailed.Component
	}
	jsonData, _ := json.Marshal(logMap)
	fmt.Fprintln(w, string(jsonData))
}

// printLogText pretty-prints a log line for human consumption. Lines
// written by the text formatter are printed as they are.
func printLogText(w io.Writer, tailed TailedLine) {
	t := theme.DefaultTheme
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tailed.Line), &logMap); err != nil {
		fmt.Fprintln(w, tailed.Line)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)
	component, _ := logMap["component"].(string)
	if component == "" {
		component = tailed.Component
	}

	parsedTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsedTime, _ = time.Parse(time.RFC3339, ts)
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	var keys []string
	for k := range logMap {
		if k != "time" && k != "level" && k != "msg" && k != "component" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), logMap[k]))
	}

	fmt.Fprintf(w, "%s %s [%s] %s %s\n",
		parsedTime.Format("15:04:05"),
		levelStyle.Render(strings.ToUpper(level)),
		t.Accent.Render(component),
		msg,
		strings.Join(fields, " "),
	)
}
