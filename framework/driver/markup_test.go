package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMarkup(t *testing.T) {
	rendered := "<html><head></head><body>\n  <h1>Hello, World!</h1>\n</body></html>"
	assert.Equal(t, NormalizeMarkup(WrapHTML("<h1>Hello, World!</h1>")), NormalizeMarkup(rendered))
	assert.Equal(t, "<p>ab</p>", NormalizeMarkup("<p>a\n b</p>"))
}

func TestWrapHTML(t *testing.T) {
	assert.Equal(t, "<html><head></head><body>Hello World!</body></html>", WrapHTML("Hello World!"))
}
