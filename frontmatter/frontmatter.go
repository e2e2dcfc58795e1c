// Package frontmatter reads the YAML metadata block at the head of a post.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTag is assigned to posts that declare no tags.
const DefaultTag = "others"

var (
	// ErrMissingClosingDelimiter indicates the document opened a front-matter
	// block but never closed it.
	ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid front-matter")
)

// Meta is the decoded front-matter of a post.
type Meta struct {
	Author       string
	PubDatetime  time.Time
	ModDatetime  time.Time // zero when the post was never revised
	Title        string
	PostSlug     string // overrides the title-derived slug when set
	Featured     bool
	Draft        bool
	Tags         []string
	OGImage      string
	CanonicalURL string
	Description  string
}

// raw mirrors the YAML keys. Dates stay strings so naive timestamps can be
// interpreted in the site's timezone.
type raw struct {
	Author       string     `yaml:"author"`
	PubDatetime  string     `yaml:"pubDatetime"`
	ModDatetime  string     `yaml:"modDatetime"`
	Title        string     `yaml:"title"`
	PostSlug     string     `yaml:"postSlug"`
	Featured     bool       `yaml:"featured"`
	Draft        bool       `yaml:"draft"`
	Tags         stringList `yaml:"tags"`
	OGImage      string     `yaml:"ogImage"`
	CanonicalURL string     `yaml:"canonicalURL"`
	Description  string     `yaml:"description"`
}

// stringList accepts either a YAML sequence or a single scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := n.Decode(&ss); err != nil {
			return err
		}
		*l = ss
		return nil
	}
	return fmt.Errorf("line %d: tags must be a string or a list of strings", n.Line)
}

// Split separates a `---` delimited front-matter block from the Markdown
// body. If doc does not open with a delimiter, had is false and body is doc.
func Split(doc []byte) (fm, body []byte, had bool, err error) {
	nl := "\n"
	if i := bytes.IndexByte(doc, '\n'); i > 0 && doc[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(doc, open) {
		return nil, doc, false, nil
	}
	rest := doc[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}
	if bytes.HasSuffix(rest, []byte(nl+"---")) {
		return rest[:len(rest)-len("---")], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse splits doc and decodes its front-matter. Naive timestamps are read
// in loc; a nil loc means UTC. The returned Meta is not validated.
func Parse(doc []byte, loc *time.Location) (Meta, []byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	fm, body, _, err := Split(doc)
	if err != nil {
		return Meta{}, nil, err
	}
	var r raw
	if err := yaml.Unmarshal(fm, &r); err != nil {
		return Meta{}, nil, fmt.Errorf("decode front-matter: %w", err)
	}

	m := Meta{
		Author:       strings.TrimSpace(r.Author),
		Title:        strings.TrimSpace(r.Title),
		PostSlug:     strings.TrimSpace(r.PostSlug),
		Featured:     r.Featured,
		Draft:        r.Draft,
		Tags:         []string(r.Tags),
		OGImage:      r.OGImage,
		CanonicalURL: strings.TrimSpace(r.CanonicalURL),
		Description:  strings.TrimSpace(r.Description),
	}
	if r.PubDatetime != "" {
		if m.PubDatetime, err = ParseTime(r.PubDatetime, loc); err != nil {
			return Meta{}, nil, fmt.Errorf("%w: pubDatetime: %v", ErrInvalid, err)
		}
	}
	if r.ModDatetime != "" {
		if m.ModDatetime, err = ParseTime(r.ModDatetime, loc); err != nil {
			return Meta{}, nil, fmt.Errorf("%w: modDatetime: %v", ErrInvalid, err)
		}
	}
	if len(m.Tags) == 0 {
		m.Tags = []string{DefaultTag}
	}
	return m, body, nil
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps and the shorter date forms used in
// hand-written front-matter. Forms without an offset are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range layouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// Validate reports missing titles, publish dates and empty tags.
func (m Meta) Validate() error {
	var errs []error
	if m.Title == "" {
		errs = append(errs, fmt.Errorf("%w: title is empty", ErrInvalid))
	}
	if m.PubDatetime.IsZero() {
		errs = append(errs, fmt.Errorf("%w: pubDatetime is missing", ErrInvalid))
	}
	for i, t := range m.Tags {
		if strings.TrimSpace(t) == "" {
			errs = append(errs, fmt.Errorf("%w: tag %d is empty", ErrInvalid, i))
		}
	}
	if !m.ModDatetime.IsZero() && m.ModDatetime.Before(m.PubDatetime) {
		errs = append(errs, fmt.Errorf("%w: modDatetime is before pubDatetime", ErrInvalid))
	}
	return errors.Join(errs...)
}
