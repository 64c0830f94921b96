package convert

import (
	"cmp"
	"slices"
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/nao1215/mdtidy/internal/mdparse"
	"github.com/nao1215/mdtidy/internal/textutil"
)

// Link is a reference definition the document declares.
type Link struct {
	// Name is the lower-cased label.
	Name string
	// URL is the destination as it appears in rendered href attributes.
	URL string
	// Title is only meaningful when HasTitle is set.
	Title    string
	HasTitle bool
}

// buildLinks converts parsed references into links sorted by name, then URL.
// URL and title go through the same escaping the HTML renderer applies, so
// they compare equal to the attributes of the elements referencing them.
func buildLinks(refs []mdparse.Reference) []Link {
	links := make([]Link, 0, len(refs))
	for _, r := range refs {
		l := Link{
			Name: strings.ToLower(strings.TrimSpace(textutil.CollapseWhitespace(r.Label))),
			URL:  string(util.URLEscape(r.Destination, true)),
		}
		if r.Title != nil {
			l.Title = textutil.DecodeEntities(string(util.UnescapePunctuations(r.Title)))
			l.HasTitle = true
		}
		links = append(links, l)
	}
	slices.SortFunc(links, func(a, b Link) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.URL, b.URL))
	})
	return links
}

// findLink returns the first link with the given URL and title.
func findLink(links []Link, url, title string, hasTitle bool) (Link, bool) {
	for _, l := range links {
		if l.URL == url && l.HasTitle == hasTitle && l.Title == title {
			return l, true
		}
	}
	return Link{}, false
}

// formatDestination writes a URL so that Markdown reads it back unchanged.
func formatDestination(url string) string {
	if strings.ContainsAny(url, " ()") {
		return "<" + url + ">"
	}
	return url
}

var titleEscaper = strings.NewReplacer(`"`, `\"`)

// formatTitle returns ` "title"`, or "" when there is no title.
func formatTitle(title string, hasTitle bool) string {
	if !hasTitle {
		return ""
	}
	return ` "` + titleEscaper.Replace(title) + `"`
}

// formatDefinitions renders the reference block, one definition per line.
func formatDefinitions(links []Link) string {
	var sb strings.Builder
	for _, l := range links {
		sb.WriteString("[" + l.Name + "]: " + formatDestination(l.URL) + formatTitle(l.Title, l.HasTitle) + "\n")
	}
	return sb.String()
}
