package command

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/cli/connection"
	"github.com/yndnr/tasklist-go/internal/cli/output"
)

// MaxImportBatch is the largest batch the server accepts.
const MaxImportBatch = 1000

// TaskCommand returns the task subcommand group.
func TaskCommand() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Manage tasks",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Append a task",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "label",
						Aliases: []string{"l"},
						Usage:   "Label to attach (repeatable)",
					},
				},
				Action: taskAdd,
			},
			{
				Name:      "get",
				Usage:     "Show the task at an index",
				ArgsUsage: "INDEX",
				Action:    taskGet,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tasks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Index of the first task",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Page size (max 100)",
					},
				},
				Action: taskList,
			},
			{
				Name:      "import",
				Usage:     "Append one task per line of FILE (- for stdin)",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "label",
						Aliases: []string{"l"},
						Usage:   "Label to attach to every task (repeatable)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Value: MaxImportBatch,
						Usage: "Tasks per request (max 1000)",
					},
				},
				Action: taskImport,
			},
		},
	}
}

func taskAdd(c *cli.Context) error {
	title := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("task title required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, connection.DefaultTimeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Post(ctx, "/tasks", addTaskRequest{
		Title:  title,
		Labels: c.StringSlice("label"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	verbosef(c, "POST %s/tasks -> %d (%s)", client.BaseURL(), resp.StatusCode, time.Since(start).Round(time.Millisecond))

	var result addTaskResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	return render(c, newTaskRow(result.Index, result.Task))
}

func taskGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one INDEX required")
	}
	index, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("index must be an integer: %q", c.Args().First())
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, connection.DefaultTimeout)
	defer cancel()

	path := "/tasks/" + strconv.Itoa(index)
	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	verbosef(c, "GET %s%s -> %d", client.BaseURL(), path, resp.StatusCode)

	var t task
	if err := connection.ParseResponse(resp, &t); err != nil {
		return err
	}

	return render(c, newTaskRow(index, t))
}

func taskList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, connection.DefaultTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("offset", strconv.Itoa(c.Int("offset")))
	query.Set("limit", strconv.Itoa(c.Int("limit")))
	path := "/tasks?" + query.Encode()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	verbosef(c, "GET %s%s -> %d", client.BaseURL(), path, resp.StatusCode)

	var result listTasksResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	page := TaskPage{
		Items:  make([]TaskRow, 0, len(result.Items)),
		Total:  result.Total,
		Offset: result.Offset,
		Limit:  result.Limit,
	}
	for i, t := range result.Items {
		page.Items = append(page.Items, newTaskRow(result.Offset+i, t))
	}

	if !isTable(c) {
		return render(c, page)
	}

	if len(page.Items) == 0 {
		fmt.Fprintf(c.App.Writer, "No tasks (total %d)\n", page.Total)
		return nil
	}
	if err := render(c, page.Items); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\nShowing %d-%d of %d\n", page.Offset, page.Offset+len(page.Items)-1, page.Total)
	return nil
}

// importLine is a title and the file line it came from.
type importLine struct {
	line  int
	title string
}

// readImportLines returns the non-blank lines of r; lines starting with #
// are comments.
func readImportLines(r io.Reader) ([]importLine, error) {
	var lines []importLine
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, importLine{line: n, title: text})
	}
	return lines, scanner.Err()
}

func taskImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one FILE required")
	}

	batchSize := c.Int("batch-size")
	if batchSize < 1 || batchSize > MaxImportBatch {
		return fmt.Errorf("batch-size must be between 1 and %d", MaxImportBatch)
	}

	var in io.Reader
	if name := c.Args().First(); name == "-" {
		in = c.App.Reader
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()
		in = f
	}

	lines, err := readImportLines(in)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	result := ImportResult{Total: len(lines)}
	if len(lines) == 0 {
		return render(c, result)
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	var bar *output.ProgressBar
	if isTable(c) {
		bar = output.NewProgressBar(c.App.ErrWriter, "Importing", len(lines))
	}

	labels := c.StringSlice("label")
	for start := 0; start < len(lines); start += batchSize {
		chunk := lines[start:min(start+batchSize, len(lines))]

		req := batchAddRequest{Tasks: make([]addTaskRequest, len(chunk))}
		for i, l := range chunk {
			req.Tasks[i] = addTaskRequest{Title: l.title, Labels: labels}
		}

		batch, err := postBatch(c, client, req)
		if err != nil {
			if bar != nil {
				bar.Finish()
			}
			return err
		}

		for _, r := range batch.Results {
			if r.Code == "" || r.Position < 0 || r.Position >= len(chunk) {
				continue
			}
			l := chunk[r.Position]
			result.Failures = append(result.Failures, ImportFailure{
				Line:    l.line,
				Title:   l.title,
				Code:    r.Code,
				Message: r.Message,
			})
		}
		result.Succeeded += batch.Succeeded
		result.Failed += batch.Failed

		if bar != nil {
			bar.Add(len(chunk), batch.Failed)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if !isTable(c) {
		if err := render(c, result); err != nil {
			return err
		}
	} else {
		if len(result.Failures) > 0 {
			if err := render(c, result.Failures); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer)
		}
		fmt.Fprintf(c.App.Writer, "Imported %d of %d tasks\n", result.Succeeded, result.Total)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", result.Failed, result.Total)
	}
	return nil
}

func postBatch(c *cli.Context, client *connection.HTTPClient, req batchAddRequest) (*batchAddResponse, error) {
	ctx, cancel := requestContext(c, 2*connection.DefaultTimeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Post(ctx, "/tasks/batch", req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	verbosef(c, "POST %s/tasks/batch (%d tasks) -> %d (%s)",
		client.BaseURL(), len(req.Tasks), resp.StatusCode, time.Since(start).Round(time.Millisecond))

	var result batchAddResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
