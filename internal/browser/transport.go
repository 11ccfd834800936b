package browser

import (
	"net/http"

	"github.com/nao1215/pageask/internal/config"
)

// headerInjectingTransport adds the site's cookie and headers to every
// request, redirects included.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	sites     *config.File
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	site := siteConfig(t.sites, req.URL.Hostname())
	ua := t.userAgent
	if site.UserAgent != "" {
		ua = site.UserAgent
	}
	if ua != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", ua)
	}
	if site.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+site.Cookie)
		} else {
			clone.Header.Set("Cookie", site.Cookie)
		}
	}
	for key, value := range site.Headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

func siteConfig(f *config.File, host string) config.SiteConfig {
	if f == nil {
		return config.SiteConfig{}
	}
	return f.GetSiteConfig(host)
}
