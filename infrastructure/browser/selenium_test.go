package browser

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"booking_automation/domain/entities"
	"booking_automation/infrastructure/config"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		strategy entities.SelectorStrategy
		want     query
	}{
		{
			name:     "known role",
			strategy: entities.ByRole("button", "^search$"),
			want:     query{by: selenium.ByXPATH, value: roleXPath["button"], source: sourceName},
		},
		{
			name:     "unknown role",
			strategy: entities.ByRole("tab", "flights"),
			want:     query{by: selenium.ByXPATH, value: "//*[@role='tab']", source: sourceName},
		},
		{
			name:     "placeholder",
			strategy: entities.ByPlaceholder("airport"),
			want:     query{by: selenium.ByXPATH, value: "//*[@placeholder]", source: sourcePlaceholder},
		},
		{
			name:     "label",
			strategy: entities.ByLabel("adults"),
			want:     query{by: selenium.ByXPATH, value: "//label | //*[@aria-label]", source: sourceLabel},
		},
		{
			name:     "text",
			strategy: entities.ByText("privacy"),
			want:     query{by: selenium.ByXPATH, value: "//body//*[text()[normalize-space()]]", source: sourceText},
		},
		{
			name:     "plain css",
			strategy: entities.ByStructure(`[data-testid*="close"]`),
			want:     query{by: selenium.ByCSSSelector, value: `[data-testid*="close"]`},
		},
		{
			name:     "has-text is split off",
			strategy: entities.ByStructure(`[role="button"]:has-text("Accept")`),
			want:     query{by: selenium.ByCSSSelector, value: `[role="button"]`, hasText: "Accept"},
		},
		{
			name:     "has-text followed by an adjacent sibling",
			strategy: entities.ByStructure(`label:has-text("Adults") + select`),
			want: query{
				by:      selenium.ByCSSSelector,
				value:   "label",
				hasText: "Adults",
				then:    "following-sibling::*[1][self::select]",
			},
		},
		{
			name:     "has-text followed by a descendant",
			strategy: entities.ByStructure(`div:has-text("Children") select`),
			want:     query{by: selenium.ByCSSSelector, value: "div", hasText: "Children", then: ".//select"},
		},
		{
			name:     "has-text followed by a child",
			strategy: entities.ByStructure(`li:has-text("Age") > select`),
			want:     query{by: selenium.ByCSSSelector, value: "li", hasText: "Age", then: "./select"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translate(tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate_UnknownKind(t *testing.T) {
	_, err := translate(entities.SelectorStrategy{Kind: "xpath"})
	assert.Error(t, err)
}

func TestTranslate_UnsupportedHasTextTail(t *testing.T) {
	_, err := translate(entities.ByStructure(`label:has-text("Adults") + select.large`))
	assert.Error(t, err)
}

func TestQueryWithin(t *testing.T) {
	q, err := translate(entities.ByRole("button", "close"))
	require.NoError(t, err)
	assert.Equal(t,
		`.//button | .//*[@role='button'] | .//input[@type='button' or @type='submit']`,
		q.within().value)

	q, err = translate(entities.ByText("sign up"))
	require.NoError(t, err)
	assert.Equal(t, ".//*[text()[normalize-space()]]", q.within().value)

	q, err = translate(entities.ByStructure(".close-button"))
	require.NoError(t, err)
	assert.Equal(t, ".close-button", q.within().value, "css lookups are left alone")
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, selenium.EnterKey, keyFor("Enter"))
	assert.Equal(t, selenium.EscapeKey, keyFor("Escape"))
	assert.Equal(t, "a", keyFor("a"))
}

func TestChromeArgs(t *testing.T) {
	args := chromeArgs(config.BrowserConfig{
		Headless:       true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		UserAgent:      "booking-bot",
		Args:           []string{"--lang=en-GB"},
	})
	assert.Contains(t, args, "--window-size=1920,1080")
	assert.Contains(t, args, "--headless=new")
	assert.Contains(t, args, "--user-agent=booking-bot")
	assert.Equal(t, "--lang=en-GB", args[len(args)-1])

	assert.NotContains(t, chromeArgs(config.BrowserConfig{}), "--headless=new")
}

func TestReservePort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := l.Addr().(*net.TCPAddr).Port
	t.Cleanup(func() { _ = l.Close() })

	first, err := reservePort(base)
	require.NoError(t, err)
	t.Cleanup(func() { releasePort(first) })
	assert.NotEqual(t, base, first, "a port something else listens on is skipped")

	second, err := reservePort(base)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "parallel sessions get their own port")

	releasePort(second)
	again, err := reservePort(base)
	require.NoError(t, err)
	assert.Equal(t, second, again, "released ports are reused")
	releasePort(again)
}
