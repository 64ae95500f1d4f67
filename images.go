package folio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const (
	maxBannerWidth = 1200
	jpegQuality    = 80
	maxBannerSize  = 10 << 20 // 10MB
	bannersSubdir  = "banners"
)

// BannerLocalizer copies remote banner images into the static directory so
// stored pages do not depend on the CMS image CDN.
type BannerLocalizer struct {
	client    *http.Client
	staticDir string
}

// NewBannerLocalizer writes banners under {staticDir}/banners.
func NewBannerLocalizer(staticDir string, client *http.Client) *BannerLocalizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &BannerLocalizer{client: client, staticDir: staticDir}
}

// Localize downloads the banner at src, downscales it and stores it as
// {uid}.jpg. It returns the public URL path of the local copy.
func (b *BannerLocalizer) Localize(ctx context.Context, uid, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("banner %s: HTTP %d", uid, resp.StatusCode)
	}

	data, err := processImage(io.LimitReader(resp.Body, maxBannerSize))
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}

	dir := filepath.Join(b.staticDir, bannersSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create banners dir: %w", err)
	}
	filename := uid + ".jpg"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write banner: %w", err)
	}
	return "/public/" + bannersSubdir + "/" + filename, nil
}

// processImage decodes an image, resizes it to maxBannerWidth when wider,
// and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
