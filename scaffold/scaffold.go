// Package scaffold provides embedded template files for the devlog CLI:
// a starter site for "devlog init" and the post skeleton for "devlog new".
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// SiteRoot is the directory of the starter site inside Templates.
const SiteRoot = "templates/site"

// PostTemplate is the path of the new-post template inside Templates.
const PostTemplate = "templates/post.md.tmpl"
