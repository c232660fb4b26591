// Command strata drives stack-based IaC projects over MCP and the CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/deixis/strata"
	"github.com/deixis/strata/internal/cloud"
	"github.com/deixis/strata/internal/config"
	stratamcp "github.com/deixis/strata/internal/mcp"
	"github.com/deixis/strata/internal/runner"
	"github.com/deixis/strata/internal/workflow"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("strata: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "mcp":
		err = mcpMain(args)
	case "trigger":
		err = triggerMain(args)
	case "op":
		err = opMain(args)
	case "stacks":
		err = stacksMain(args)
	case "version":
		fmt.Println(strata.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "strata: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: strata <command> [flags]

Commands:
  mcp         Start the MCP server
  trigger     Run the stack trigger workflow
  op          Run one stack operation (list, run, generate, fmt, ...)
  stacks      List cloud stacks
  version     Print the version
  help        Show this help

Use "strata <command> -h" for command-specific flags.`)
}

// newEngine loads config for the current directory and builds the
// workflow engine around a real process runner.
func newEngine() (*workflow.Engine, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	return &workflow.Engine{
		Config:    cfg,
		Runner:    r,
		Workspace: workspace,
	}, nil
}

// newCloudClient builds a cloud client from the environment, or returns
// nil when no API key is configured.
func newCloudClient(cfg *config.Config) (*cloud.Client, error) {
	key := config.APIKey()
	if key == "" {
		return nil, nil
	}
	return cloud.NewClient(key, "strata/"+strata.Version, cloud.WithRegion(cfg.Region()))
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(stratamcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	var opts []stratamcp.ServerOption
	if !workflow.CLIAvailable(cfg.CLI()) {
		log.Printf("%s not found on PATH; workflow tools disabled", cfg.CLI())
		opts = append(opts, stratamcp.WithoutCLITools())
	}

	client, err := newCloudClient(cfg)
	if err != nil {
		return fmt.Errorf("cloud client: %w", err)
	}
	if client != nil {
		opts = append(opts, stratamcp.WithCloud(client))
	} else {
		log.Printf("STRATA_API_KEY not set; cloud tools disabled")
	}

	server := stratamcp.NewServer(cfg, r, workspace, opts...)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- trigger ---

func triggerMain(args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	path := fs.String("path", "", "path of the stack to trigger")
	status := fs.String("status", "", "trigger stacks by status instead of by path")
	dir := fs.String("dir", "", "project directory (defaults to the current directory)")
	recursive := fs.Bool("recursive", false, "recursively trigger all nested stacks")
	ignoreChange := fs.Bool("ignore-change", false, "mark the stack as unchanged")
	message := fs.String("m", "", "commit message (derived when empty)")
	createPR := fs.Bool("pr", true, "create a draft review request")
	title := fs.String("title", "", "review request title (derived when empty)")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	transcript, err := eng.Trigger(ctx, workflow.TriggerParams{
		StackPath:     *path,
		WorkingDir:    *dir,
		Status:        *status,
		Recursive:     *recursive,
		IgnoreChange:  *ignoreChange,
		CommitMessage: *message,
		CreatePR:      *createPR,
		PRTitle:       *title,
	})
	if err != nil {
		return err
	}

	fmt.Println(transcript.String())
	if transcript.Failed() {
		os.Exit(1)
	}
	return nil
}

// --- op ---

func opMain(args []string) error {
	fs := flag.NewFlagSet("op", flag.ExitOnError)
	dir := fs.String("dir", "", "project directory (defaults to the current directory)")
	command := fs.String("command", "", "command for run operations")
	changed := fs.Bool("changed", false, "only operate on changed stacks")
	parallel := fs.Int("parallel", 0, "parallel executions for run operations")
	check := fs.Bool("check", false, "check formatting without rewriting (fmt only)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: strata op [flags] <%s>", opList())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	out, err := eng.StackOp(ctx, workflow.OpParams{
		Operation:  fs.Arg(0),
		WorkingDir: *dir,
		Command:    *command,
		Changed:    *changed,
		Parallel:   *parallel,
		Check:      *check,
	})
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func opList() string {
	s := ""
	for i, op := range workflow.Operations {
		if i > 0 {
			s += "|"
		}
		s += op
	}
	return s
}

// --- stacks ---

func stacksMain(args []string) error {
	fs := flag.NewFlagSet("stacks", flag.ExitOnError)
	org := fs.String("org", "", "organization UUID (auto-discovered when omitted)")
	status := fs.String("status", "", "filter by status (ok, drifted, failed, unknown)")
	repo := fs.String("repo", "", "filter by repository")
	search := fs.String("search", "", "search term")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 100, "items per page")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}
	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := newCloudClient(loaded.Config)
	if err != nil {
		return fmt.Errorf("cloud client: %w", err)
	}
	if client == nil {
		return fmt.Errorf("STRATA_API_KEY is not set")
	}

	orgUUID := *org
	if orgUUID == "" {
		memberships, err := client.Organizations.List(ctx)
		if err != nil {
			return fmt.Errorf("discovering organization: %w", err)
		}
		if len(memberships) == 0 {
			return fmt.Errorf("the API key belongs to no organization")
		}
		orgUUID = memberships[0].OrgUUID
	}

	res, err := client.Stacks.List(ctx, orgUUID, &cloud.StackListOptions{
		ListOptions: cloud.ListOptions{Page: *page, PerPage: *perPage},
		Status:      *status,
		Repository:  *repo,
		Search:      *search,
	})
	if err != nil {
		return fmt.Errorf("listing stacks: %w", err)
	}
	if len(res.Stacks) == 0 {
		fmt.Println("No stacks found.")
		return nil
	}

	fmt.Println(stacksTable(res.Stacks))
	if res.PaginatedResult.TotalPages() > 1 {
		fmt.Printf("Page %d of %d (%d total).\n",
			res.PaginatedResult.Page, res.PaginatedResult.TotalPages(), res.PaginatedResult.Total)
	}
	return nil
}
