package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pageask/internal/captcha"
	"github.com/nao1215/pageask/internal/model"
)

// inlinePrefix is the data URI prefix given to every downloaded image.
const inlinePrefix = "data:image/png;base64,"

// extractImages collects the images worth sending to the model. Inline
// images are copied as they are. Other images are downloaded only when
// they look like a CAPTCHA. A failed download drops that image.
func (s *Session) extractImages(ctx context.Context, pageURL, rawHTML string) model.ImageMap {
	images := make(model.ImageMap)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return images
	}
	base, _ := url.Parse(pageURL)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if strings.TrimSpace(src) == "" {
			return
		}
		if _, seen := images[src]; seen {
			return
		}
		if model.IsDataURI(src) {
			images[src] = src
			return
		}

		markup, _ := goquery.OuterHtml(img)
		if !captcha.IsSuspiciousImage(src, markup) {
			return
		}

		dataURI, err := s.downloadImage(ctx, base, src, pageURL)
		if err != nil {
			s.logger.Warn("skipping image",
				"src", src,
				"error", err,
			)
			return
		}
		images[src] = dataURI
	})

	return images
}

// downloadImage fetches src, resolved against base, and returns it as a
// base64 data URI. The page URL is sent as Referer.
func (s *Session) downloadImage(ctx context.Context, base *url.URL, src, referer string) (string, error) {
	target, err := resolve(base, src)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrImageDownload, src, err)
	}

	if s.imageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.imageTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrImageDownload, src, err)
	}
	req.Header.Set("Referer", referer)

	resp, err := s.images.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrImageDownload, src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: status %d", ErrImageDownload, src, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrImageDownload, src, err)
	}
	if int64(len(data)) > s.maxImageSize {
		return "", fmt.Errorf("%w: %s: larger than %d bytes", ErrImageDownload, src, s.maxImageSize)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s: empty body", ErrImageDownload, src)
	}

	return inlinePrefix + base64.StdEncoding.EncodeToString(data), nil
}

// resolve makes src absolute. Only http and https are downloaded.
func resolve(base *url.URL, src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", ref.Scheme)
	}
	return ref.String(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
