package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestAuthorLabel(t *testing.T) {
	id := "1234abcd-5678-90ef-aaaa-bbbbccccdddd"

	assert.Equal(t, "ada", AuthorLabel(strp("  ada "), &id))
	assert.Equal(t, "user-1234abcd", AuthorLabel(strp("   "), &id))
	assert.Equal(t, "user-1234abcd", AuthorLabel(nil, &id))
	assert.Equal(t, "anonymous", AuthorLabel(nil, strp("abc")))
	assert.Equal(t, "anonymous", AuthorLabel(nil, nil))
}

func TestNormalizeLink(t *testing.T) {
	link, domain, err := NormalizeLink("  www.Example.com/post?id=3 ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.Example.com/post?id=3", link)
	assert.Equal(t, "example.com", domain)

	link, domain, err = NormalizeLink("HTTP://news.site.org")
	require.NoError(t, err)
	assert.Equal(t, "http://news.site.org/", link)
	assert.Equal(t, "news.site.org", domain)

	link, domain, err = NormalizeLink("")
	require.NoError(t, err)
	assert.Empty(t, link)
	assert.Empty(t, domain)

	_, _, err = NormalizeLink("https://")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, _, err = NormalizeLink("exa mple.com")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "-1", "0", "1.5"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("  "))
	assert.Equal(t, "x", *OptionalString(" x "))
	assert.Equal(t, "", Deref(nil))
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "just now", TimeAgo(time.Now().Add(-2*time.Second)))
	assert.Equal(t, "just now", TimeAgo(time.Now().Add(3*time.Second)))
	assert.Equal(t, "3 minutes ago", TimeAgo(time.Now().Add(-3*time.Minute-time.Second)))
	assert.Empty(t, TimeAgo(time.Time{}))
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("hello **world**\n<script>alert(1)</script>\n\n![cat](https://img.example.com/cat.png)"))

	assert.Contains(t, out, "<strong>world</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `loading="lazy"`)
	assert.False(t, strings.Contains(out, "<body>"))
	assert.Empty(t, RenderMarkdown("  \n"))
}

func TestRenderMarkdownLinks(t *testing.T) {
	out := string(RenderMarkdown("[out](https://example.com/a) and [back](/thread/3#comment-4)"))

	assert.Contains(t, out, `rel="nofollow ugc noopener noreferrer"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `href="/thread/3#comment-4"`)
	assert.Equal(t, 1, strings.Count(out, `target="_blank"`))
	assert.Equal(t, 1, strings.Count(out, "ugc"))
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, -time.Second)

	assert.Equal(t, 1, c.Get("a"))
	assert.Nil(t, c.Get("b"))

	c.Delete("a")
	assert.Nil(t, c.Get("a"))
}
