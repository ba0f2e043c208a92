package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tebeka/selenium"

	"booking_automation/domain/entities"
)

// matchSource names where a WebDriver candidate's matchable text comes from
type matchSource int

const (
	sourceNone matchSource = iota
	sourceName
	sourcePlaceholder
	sourceLabel
	sourceText
)

// query is a selector strategy translated into a WebDriver lookup. The lookup is broad;
// candidates are narrowed in Go against the strategy pattern read from source.
type query struct {
	by      string
	value   string
	source  matchSource
	hasText string
	// then is an XPath from each :has-text() match to the elements actually wanted.
	then string
}

// within rewrites an absolute XPath lookup to search below the element it runs on.
// CSS lookups from an element are already scoped to its descendants.
func (q query) within() query {
	if q.by != selenium.ByXPATH {
		return q
	}
	parts := strings.Split(q.value, " | ")
	for i, part := range parts {
		parts[i] = "." + strings.TrimPrefix(part, "//body")
	}
	q.value = strings.Join(parts, " | ")
	return q
}

var roleXPath = map[string]string{
	"button":   `//button | //*[@role='button'] | //input[@type='button' or @type='submit']`,
	"link":     `//a[@href] | //*[@role='link']`,
	"dialog":   `//dialog | //*[@role='dialog' or @role='alertdialog']`,
	"textbox":  `//input[not(@type) or @type='text' or @type='search' or @type='email' or @type='tel'] | //textarea | //*[@role='textbox']`,
	"combobox": `//select | //*[@role='combobox']`,
	"checkbox": `//input[@type='checkbox'] | //*[@role='checkbox']`,
}

// hasTextPattern splits the :has-text() pseudo-class, which browsers do not understand, off a CSS selector.
var hasTextPattern = regexp.MustCompile(`^(.*?):has-text\("([^"]*)"\)(.*)$`)

// combinatorPattern matches what may follow :has-text(): one combinator and a tag name.
var combinatorPattern = regexp.MustCompile(`^(?:\s*([+~>])\s*|\s+)([A-Za-z][\w-]*|\*)$`)

// relativeXPath translates the selector tail after :has-text() into an XPath step.
func relativeXPath(rest string) (string, error) {
	m := combinatorPattern.FindStringSubmatch(rest)
	if m == nil {
		return "", fmt.Errorf("unsupported selector after :has-text(): %q", rest)
	}
	tag := m[2]
	switch m[1] {
	case "+":
		return fmt.Sprintf("following-sibling::*[1][self::%s]", tag), nil
	case "~":
		return "following-sibling::" + tag, nil
	case ">":
		return "./" + tag, nil
	default:
		return ".//" + tag, nil
	}
}

func translate(s entities.SelectorStrategy) (query, error) {
	switch s.Kind {
	case entities.StrategyRole:
		xpath, ok := roleXPath[s.Role]
		if !ok {
			xpath = fmt.Sprintf("//*[@role='%s']", s.Role)
		}
		return query{by: selenium.ByXPATH, value: xpath, source: sourceName}, nil
	case entities.StrategyPlaceholder:
		return query{by: selenium.ByXPATH, value: "//*[@placeholder]", source: sourcePlaceholder}, nil
	case entities.StrategyLabel:
		return query{by: selenium.ByXPATH, value: "//label | //*[@aria-label]", source: sourceLabel}, nil
	case entities.StrategyText:
		return query{by: selenium.ByXPATH, value: "//body//*[text()[normalize-space()]]", source: sourceText}, nil
	case entities.StrategyStructure:
		if m := hasTextPattern.FindStringSubmatch(s.Selector); m != nil {
			q := query{by: selenium.ByCSSSelector, value: m[1], hasText: m[2]}
			if m[3] != "" {
				then, err := relativeXPath(m[3])
				if err != nil {
					return query{}, err
				}
				q.then = then
			}
			return q, nil
		}
		return query{by: selenium.ByCSSSelector, value: s.Selector}, nil
	default:
		return query{}, fmt.Errorf("unsupported strategy kind %q", s.Kind)
	}
}

var webDriverKeys = map[string]string{
	"Enter":      selenium.EnterKey,
	"Escape":     selenium.EscapeKey,
	"Tab":        selenium.TabKey,
	"Backspace":  selenium.BackspaceKey,
	"ArrowUp":    selenium.UpArrowKey,
	"ArrowDown":  selenium.DownArrowKey,
	"ArrowLeft":  selenium.LeftArrowKey,
	"ArrowRight": selenium.RightArrowKey,
}

// keyFor maps a key name to the WebDriver key code; anything else is typed literally.
func keyFor(key string) string {
	if code, ok := webDriverKeys[key]; ok {
		return code
	}
	return key
}
