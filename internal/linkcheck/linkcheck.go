// Package linkcheck verifies the hypertext artifacts after a run: every
// internal href must point at an artifact that was produced, and every
// fragment at an element id that exists in it. A clean report means the
// cross-reference pass kept its promise end to end.
package linkcheck

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/render"
	"git.home.luguber.info/inful/apidoc/internal/util/sets"
)

// Problem describes one broken internal link.
type Problem struct {
	Artifact string // artifact containing the link
	Href     string // the offending href value
	Reason   string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s (%s)", p.Artifact, p.Href, p.Reason)
}

// Verify checks all internal links across a set of hypertext artifacts.
// External links (those with a scheme or host) are not checked.
func Verify(artifacts []render.Artifact) ([]Problem, error) {
	pages := make(map[string]sets.Set[string])
	type link struct {
		artifact string
		href     string
	}
	var links []link

	for _, a := range artifacts {
		if !strings.HasSuffix(a.Name, ".html") {
			continue
		}
		doc, err := html.Parse(bytes.NewReader(a.Content))
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryValidation, "parse artifact").
				WithContext("artifact", a.Name).
				Build()
		}

		ids := sets.New[string]()
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode {
				if id := getAttr(n, "id"); id != "" {
					ids.Add(id)
				}
				if n.Data == "a" {
					if href := getAttr(n, "href"); href != "" {
						links = append(links, link{artifact: a.Name, href: href})
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
		pages[a.Name] = ids
	}

	var problems []Problem
	for _, l := range links {
		if isExternal(l.href) {
			continue
		}
		file, fragment, _ := strings.Cut(l.href, "#")
		if file == "" {
			file = l.artifact
		}
		ids, ok := pages[file]
		if !ok {
			problems = append(problems, Problem{
				Artifact: l.artifact,
				Href:     l.href,
				Reason:   "target artifact missing",
			})
			continue
		}
		if fragment != "" && !ids.Has(fragment) {
			problems = append(problems, Problem{
				Artifact: l.artifact,
				Href:     l.href,
				Reason:   "fragment not found",
			})
		}
	}
	return problems, nil
}

func isExternal(href string) bool {
	return strings.Contains(href, "://") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "//")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
