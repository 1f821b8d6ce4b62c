package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies-upwork.json")
	data := `[
		{"name":"visitor_id","value":"abc","domain":".upwork.com","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"Lax"},
		{"name":"lang","value":"en","domain":"www.upwork.com","path":"/","sameSite":"no_restriction"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	first := cookies[0]
	assert.Equal(t, "visitor_id", first.Name)
	assert.Equal(t, ".upwork.com", *first.Domain)
	assert.Equal(t, 1893456000.0, *first.Expires)
	assert.True(t, *first.HttpOnly)
	assert.True(t, *first.Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, first.SameSite)

	second := cookies[1]
	assert.Nil(t, second.Expires)
	assert.Nil(t, second.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, second.SameSite)
}

func TestLoadCookies_EmptyPath(t *testing.T) {
	cookies, err := LoadCookies("")
	assert.NoError(t, err)
	assert.Nil(t, cookies)
}

func TestLoadCookies_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadCookies(path)
	assert.Error(t, err)
}
