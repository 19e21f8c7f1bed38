package httphandler_test

import (
	"bytes"
	"testing"
	"testing/fstest"

	httphandler "github.com/lllypuk/userlist/internal/handler/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer(t *testing.T) {
	t.Run("renders by relative name", func(t *testing.T) {
		fsys := fstest.MapFS{
			"templates/hello.html":    {Data: []byte(`Hello {{.}} {{initials .}}`)},
			"templates/ignored.txt":   {Data: []byte(`{{`)},
			"templates/nested/a.html": {Data: []byte(`nested`)},
		}
		r, err := httphandler.NewTemplateRenderer(httphandler.TemplateRendererConfig{FS: fsys})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "hello.html", "ann bo", nil))
		assert.Equal(t, "Hello ann bo AB", buf.String())

		buf.Reset()
		require.NoError(t, r.Render(&buf, "nested/a.html", nil, nil))
		assert.Equal(t, "nested", buf.String())
	})

	t.Run("parse error fails construction", func(t *testing.T) {
		fsys := fstest.MapFS{
			"templates/bad.html": {Data: []byte(`{{if}}`)},
		}
		_, err := httphandler.NewTemplateRenderer(httphandler.TemplateRendererConfig{FS: fsys})
		require.Error(t, err)
	})

	t.Run("dev mode reloads", func(t *testing.T) {
		fsys := fstest.MapFS{
			"templates/page.html": {Data: []byte(`v1`)},
		}
		r, err := httphandler.NewTemplateRenderer(httphandler.TemplateRendererConfig{FS: fsys, DevMode: true})
		require.NoError(t, err)

		fsys["templates/page.html"] = &fstest.MapFile{Data: []byte(`v2`)}

		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "page.html", nil, nil))
		assert.Equal(t, "v2", buf.String())
	})
}
