package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/mdtidy/internal/dom"
)

// LanguageAliases maps fence language names to the canonical token written
// after the opening fence. No value is also a key, so rewriting is stable.
var LanguageAliases = map[string]string{
	"bash":         "sh",
	"c#":           "csharp",
	"c++":          "cpp",
	"coffeescript": "coffee",
	"f#":           "fsharp",
	"golang":       "go",
	"javascript":   "js",
	"markdown":     "md",
	"objective-c":  "objc",
	"shell":        "sh",
	"typescript":   "ts",
	"yml":          "yaml",
}

func init() {
	if err := checkAliases(LanguageAliases); err != nil {
		panic(err)
	}
}

// checkAliases verifies that no alias target is itself an alias.
func checkAliases(aliases map[string]string) error {
	for from, to := range aliases {
		if _, ok := aliases[to]; ok {
			return fmt.Errorf("%w: %s -> %s", ErrAliasCycle, from, to)
		}
	}
	return nil
}

var languagePattern = regexp.MustCompile(`(?:^|\s)lang(?:uage)?-(\S+)`)

// classLanguage extracts the language named by a lang-* or language-* class.
func classLanguage(tree *dom.Tree, id dom.NodeID) string {
	if id == dom.NoNode || !tree.IsElement(id) {
		return ""
	}
	class, ok := tree.Attr(id, "class")
	if !ok {
		return ""
	}
	if m := languagePattern.FindStringSubmatch(class); m != nil {
		return m[1]
	}
	return ""
}

// codeLanguage returns the canonical language of a code block: the class of
// the code element first, then the class of the pre element's parent.
func codeLanguage(tree *dom.Tree, pre, code dom.NodeID) string {
	lang := classLanguage(tree, code)
	if lang == "" {
		lang = classLanguage(tree, tree.Parent(pre))
	}
	return canonicalLanguage(lang)
}

// canonicalLanguage lower-cases a language name and applies LanguageAliases.
func canonicalLanguage(lang string) string {
	lang = strings.ToLower(lang)
	if alias, ok := LanguageAliases[lang]; ok {
		return alias
	}
	return lang
}
