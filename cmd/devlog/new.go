package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/devlog"
	"github.com/eringen/devlog/scaffold"
	"github.com/eringen/devlog/slug"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName    string
	Author      string
	Title       string
	Slug        string
	Tags        []string
	PubDatetime string
}

var scaffoldFuncs = template.FuncMap{
	// yaml renders v as a YAML scalar, quoted when needed.
	"yaml": func(v any) (string, error) {
		b, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(b), "\n"), nil
	},
}

// now is replaced in tests.
var now = time.Now

// runNew writes a draft post named after the slug of title into the content
// directory.
func runNew(w io.Writer, configPath, title string, tags []string, force bool) error {
	cfg, err := devlog.LoadConfig(configPath)
	if err != nil {
		return err
	}
	s := slug.Make(title)
	if s == "" {
		return fmt.Errorf("title %q has no usable slug", title)
	}
	tags = devlog.FilterEmpty(tags)
	if len(tags) == 0 {
		tags = []string{"others"}
	}

	outPath := filepath.Join(cfg.ContentDir, s+".md")
	if _, err := os.Stat(outPath); err == nil && !force {
		return fmt.Errorf("%s already exists", outPath)
	}

	data := scaffoldData{
		SiteName:    cfg.Title,
		Author:      cfg.Author,
		Title:       title,
		Slug:        s,
		Tags:        tags,
		PubDatetime: now().In(cfg.Location()).Format(time.RFC3339),
	}
	if err := renderScaffold(scaffold.PostTemplate, outPath, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "created %s\n", outPath)
	return nil
}

// runInit creates a starter site in dir.
func runInit(w io.Writer, dir, author string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	data := scaffoldData{
		SiteName:    toTitle(filepath.Base(dir)),
		Author:      author,
		PubDatetime: now().UTC().Format(time.RFC3339),
	}

	fmt.Fprintf(w, "Creating new devlog site: %s\n\n", dir)

	root := scaffold.SiteRoot
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		outPath := filepath.Join(dir, relPath)
		outPath = strings.TrimSuffix(outPath, ".tmpl")

		// Rename dotenv to .env.example.
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if err := renderScaffold(path, outPath, data); err != nil {
			return err
		}
		fmt.Fprintf(w, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Done! Next steps:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  cd %s\n", dir)
	fmt.Fprintln(w, "  cp .env.example .env")
	fmt.Fprintln(w, "  devlog serve")
	return nil
}

// renderScaffold executes the scaffold template at path into outPath.
func renderScaffold(path, outPath string, data scaffoldData) error {
	content, err := scaffold.Templates.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	tmpl, err := template.New(filepath.Base(path)).Funcs(scaffoldFuncs).Parse(string(content))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("execute template %s: %w", path, err)
	}
	return f.Close()
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
