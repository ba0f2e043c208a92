package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking_automation/infrastructure/config"
)

func TestToPlaywrightCookies_DefaultsPath(t *testing.T) {
	cookies := toPlaywrightCookies([]config.CookieConfig{
		{Name: "selectedCountry", Value: "GB", Domain: ".tui.co.uk"},
		{Name: "consent", Value: "1", Domain: ".tui.co.uk", Path: "/flight"},
	})
	require.Len(t, cookies, 2)
	assert.Equal(t, "/", *cookies[0].Path)
	assert.Equal(t, "/flight", *cookies[1].Path)
	assert.Equal(t, ".tui.co.uk", *cookies[0].Domain)
}
