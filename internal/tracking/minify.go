package tracking

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

const scriptMediaType = "application/javascript"

// Minifier shrinks synthesized script text before delivery.
type Minifier interface {
	Minify(src string) (string, error)
}

// JSMinifier minifies JavaScript with tdewolff/minify. Safe for
// concurrent use once constructed.
type JSMinifier struct {
	m *minify.M
}

func NewJSMinifier() *JSMinifier {
	m := minify.New()
	m.AddFunc(scriptMediaType, js.Minify)
	return &JSMinifier{m: m}
}

func (j *JSMinifier) Minify(src string) (string, error) {
	return j.m.String(scriptMediaType, src)
}
