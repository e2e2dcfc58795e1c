package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/eringen/devlog/slug"
)

// version is set at build time via ldflags.
var version = "dev"

type cli struct {
	Config  string `short:"c" help:"Configuration file path" default:"devlog.toml" env:"DEVLOG_CONFIG"`
	EnvFile string `help:"Environment file loaded before flags and configuration" default:".env"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Index the content directory and serve the blog"`

	Slug struct {
		Text []string `arg:"" help:"Titles or tags to convert"`
	} `cmd:"" help:"Print the URL slug of each argument"`

	Check struct{} `cmd:"" help:"Validate every post in the content directory"`

	New struct {
		Title string   `arg:"" help:"Post title"`
		Tags  []string `short:"t" help:"Post tags"`
		Force bool     `help:"Overwrite an existing file"`
	} `cmd:"" help:"Create a draft post in the content directory"`

	Init struct {
		Dir    string `arg:"" help:"Directory of the new site"`
		Author string `help:"Site author" default:"Anonymous"`
	} `cmd:"" help:"Create a new devlog site"`

	Version struct{} `cmd:"" help:"Print the devlog version"`
}

var CLI cli

const defaultEnvFile = ".env"

func main() {
	// .env has to be in the environment before kong resolves env: tags.
	envFile := envFileFromArgs(os.Args[1:])
	envErr := loadEnvFile(envFile)

	ctx := kong.Parse(&CLI,
		kong.Name("devlog"),
		kong.Description("A blog engine for long-form technical writing."),
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		slog.Warn("Failed to load env file", "path", envFile, "error", envErr)
	}

	var err error
	switch ctx.Command() {
	case "serve":
		err = runServe(CLI.Config, logger)
	case "slug <text>":
		runSlug(os.Stdout, CLI.Slug.Text)
	case "check":
		err = runCheck(os.Stdout, CLI.Config)
	case "new <title>":
		err = runNew(os.Stdout, CLI.Config, CLI.New.Title, CLI.New.Tags, CLI.New.Force)
	case "init <dir>":
		err = runInit(os.Stdout, CLI.Init.Dir, CLI.Init.Author)
	case "version":
		fmt.Printf("devlog %s\n", version)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

// runSlug prints slug.MakeAll of args, one per line.
func runSlug(w io.Writer, args []string) {
	for _, s := range slug.MakeAll(args) {
		fmt.Fprintln(w, s)
	}
}

// envFileFromArgs finds the --env-file flag ahead of kong parsing.
func envFileFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "--":
			return defaultEnvFile
		case a == "--env-file" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--env-file="):
			return strings.TrimPrefix(a, "--env-file=")
		}
	}
	return defaultEnvFile
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
