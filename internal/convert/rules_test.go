package convert

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nao1215/mdtidy/internal/dom"
	"github.com/nao1215/mdtidy/internal/mdparse"
)

func TestEmphasisDelimiters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		produce func(string, Node, []Link) (string, error)
		content string
		want    string
	}{
		{name: "emphasis prefers underscore", produce: emphasis, content: "a*b", want: "_a*b_"},
		{name: "emphasis falls back to asterisk", produce: emphasis, content: "a_b*c", want: `*a_b\*c*`},
		{name: "strong prefers asterisks", produce: strong, content: "a_b", want: "**a_b**"},
		{name: "strong falls back to underscores", produce: strong, content: "a*b_c", want: `__a*b\_c__`},
		{name: "empty emphasis disappears", produce: emphasis, content: "", want: ""},
		{name: "escaped underscore keeps underscore", produce: emphasis, content: `\_a`, want: `_\_a_`},
		{name: "escaped asterisk keeps asterisks", produce: strong, content: `a\*b`, want: `**a\*b**`},
		{name: "escapes are not doubled", produce: strong, content: `a*b\_c`, want: `__a*b\_c__`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.produce(tt.content, Node{}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLanguageAliases(t *testing.T) {
	t.Parallel()

	for from, to := range LanguageAliases {
		if _, ok := LanguageAliases[to]; ok {
			t.Errorf("alias %q -> %q maps onto another key", from, to)
		}
	}
	if LanguageAliases["c++"] != "cpp" {
		t.Errorf("expected c++ to map to cpp, got %q", LanguageAliases["c++"])
	}
}

func TestCodeLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "language class on code", markup: `<pre><code class="language-JavaScript">x</code></pre>`, want: "js"},
		{name: "lang class on code", markup: `<pre><code class="hl lang-rust">x</code></pre>`, want: "rust"},
		{name: "class on parent of pre", markup: `<div class="language-golang"><pre><code>x</code></pre></div>`, want: "go"},
		{name: "no language", markup: `<pre><code>x</code></pre>`, want: ""},
		{name: "prefix inside word is ignored", markup: `<pre><code class="mylang-go">x</code></pre>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, err := dom.ParseString(tt.markup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			pre := findTag(tree, tree.Root(), "pre")
			if got := codeLanguage(tree, pre, codeChild(tree, pre)); got != tt.want {
				t.Errorf("codeLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func findTag(tree *dom.Tree, id dom.NodeID, tag string) dom.NodeID {
	for _, c := range tree.Children(id) {
		if tree.IsElement(c) && tree.Tag(c) == tag {
			return c
		}
		if found := findTag(tree, c, tag); found != dom.NoNode {
			return found
		}
	}
	return dom.NoNode
}

func TestFindRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		tag    string
		want   string
	}{
		{name: "paragraph", markup: "<p>x</p>", tag: "p", want: "paragraph"},
		{name: "paragraph with class stays html", markup: `<p class="lead">x</p>`, tag: "p", want: "raw-html-block"},
		{name: "span with class stays html", markup: `<p><span class="x">y</span></p>`, tag: "span", want: "raw-html"},
		{name: "aligned cell", markup: `<table><tr><td style="text-align: center;">x</td></tr></table>`, tag: "td", want: "table-cell"},
		{name: "styled cell", markup: `<table><tr><td style="color: red">x</td></tr></table>`, tag: "td", want: "raw-html-block"},
		{name: "inline code", markup: "<p><code>x</code></p>", tag: "code", want: "inline-code"},
		{name: "code block", markup: "<pre><code>x</code></pre>", tag: "pre", want: "fenced-code"},
		{name: "pre without code", markup: "<pre>x</pre>", tag: "pre", want: "preformatted"},
		{name: "anchor without href", markup: "<p><a>x</a></p>", tag: "a", want: "fallback"},
		{name: "nested list", markup: "<ul><li>a<ul><li>b</li></ul></li></ul>", tag: "li", want: "list-item"},
		{name: "unknown block", markup: "<section>x</section>", tag: "section", want: "html-block"},
		{name: "unknown inline", markup: "<p><kbd>x</kbd></p>", tag: "kbd", want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, err := dom.ParseString(tt.markup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			id := findTag(tree, tree.Root(), tt.tag)
			if id == dom.NoNode {
				t.Fatalf("no <%s> in %q", tt.tag, tt.markup)
			}
			rule, err := FindRule(tree, id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule.Name != tt.want {
				t.Errorf("FindRule() = %q, want %q", rule.Name, tt.want)
			}
		})
	}
}

func TestFindRuleUnknownFilter(t *testing.T) {
	t.Parallel()

	tree := dom.NewTree()
	id := tree.NewElement("p")
	tree.AppendChild(tree.Root(), id)

	_, err := findRule([]Rule{{Name: "broken", Filter: 42}}, tree, id)
	if !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestListItemPrefix(t *testing.T) {
	t.Parallel()

	tree, err := dom.ParseString(`<ol start="7"><li>a</li><li>b</li></ol><ul><li>c</li></ul>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ol := tree.FirstChild(tree.Root())
	items := tree.Children(ol)
	if got := (Node{Tree: tree, ID: items[1]}).ItemIndex(); got != 1 {
		t.Errorf("expected item index 1, got %d", got)
	}
	if got := listItemPrefix(tree, items[1], 1); got != "8. " {
		t.Errorf("expected %q, got %q", "8. ", got)
	}
	ul := tree.LastChild(tree.Root())
	if got := listItemPrefix(tree, tree.FirstChild(ul), 0); got != "- " {
		t.Errorf("expected %q, got %q", "- ", got)
	}
}

func TestLongListNumbering(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 1; i <= 500; i++ {
		fmt.Fprintf(&sb, "%d. item\n", i)
	}
	got, err := Convert(sb.String(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sb.String() {
		t.Errorf("expected numbering to be kept, got %q", got[:min(len(got), 80)])
	}
}

func TestBuildLinks(t *testing.T) {
	t.Parallel()

	links := buildLinks([]mdparse.Reference{
		{Label: "B", Destination: []byte("http://2")},
		{Label: "a  Site", Destination: []byte("http://1"), Title: []byte("T &amp; U")},
	})
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].Name != "a site" || links[1].Name != "b" {
		t.Errorf("expected sorted, lower-cased names, got %q and %q", links[0].Name, links[1].Name)
	}
	if !links[0].HasTitle || links[0].Title != "T & U" {
		t.Errorf("unexpected title %q (present=%v)", links[0].Title, links[0].HasTitle)
	}
	if links[1].HasTitle {
		t.Error("expected no title on b")
	}
}

func TestStronger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, want string
	}{
		{a: " ", b: "\n", want: "\n"},
		{a: "\n\n", b: "\n", want: "\n\n"},
		{a: "", b: " ", want: " "},
		{a: "", b: "", want: ""},
	}
	for _, tt := range tests {
		if got := stronger(tt.a, tt.b); got != tt.want {
			t.Errorf("stronger(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEscapeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		lineStart bool
		want      string
	}{
		{name: "plain text", input: "a b", want: "a b"},
		{name: "inline syntax", input: "*a* `b` [c] <d> ~e~ \\", want: "\\*a\\* \\`b\\` \\[c\\] \\<d> \\~e\\~ \\\\"},
		{name: "intraword underscore kept", input: "snake_case _x_", want: `snake_case \_x\_`},
		{name: "underscore between wide letters kept", input: "日本_語", want: "日本_語"},
		{name: "entity-like ampersands", input: "AT&T &amp; &#38; &#x26;", want: `AT&T \&amp; \&#38; \&#x26;`},
		{name: "number dot anywhere", input: "in 2012. it", want: `in 2012\. it`},
		{name: "version number kept", input: "v1.2", want: "v1.2"},
		{name: "bare number mid line", input: "7.", want: "7."},
		{name: "bare number at line start", input: "7.", lineStart: true, want: `7\.`},
		{name: "paren marker at line start", input: "12) x", lineStart: true, want: `12\) x`},
		{name: "paren mid line", input: "(a) 1) b", lineStart: true, want: "(a) 1) b"},
		{name: "block marker at line start", input: " # a", lineStart: true, want: ` \# a`},
		{name: "block marker mid line", input: "a # b - c > d", lineStart: true, want: "a # b - c > d"},
		{name: "block marker without line start", input: "- a", want: "- a"},
		{name: "quote marker", input: "> a", lineStart: true, want: `\> a`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := escapeText(tt.input, tt.lineStart); got != tt.want {
				t.Errorf("escapeText(%q, %v) = %q, want %q", tt.input, tt.lineStart, got, tt.want)
			}
		})
	}
}

func TestCheckAliases(t *testing.T) {
	t.Parallel()

	if err := checkAliases(LanguageAliases); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := checkAliases(map[string]string{"golang": "go", "go": "golang"})
	if !errors.Is(err, ErrAliasCycle) {
		t.Errorf("expected ErrAliasCycle, got %v", err)
	}
	if got := canonicalLanguage("C++"); got != "cpp" {
		t.Errorf("canonicalLanguage(C++) = %q, want cpp", got)
	}
}
