package bot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"net/url"
	"strings"
	"time"

	"kakomonbot-backend/lib/retryutil"
	"kakomonbot-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// MaxFilesPerMessage is the platform cap on attachments per message.
const MaxFilesPerMessage = 10

const imageFetchAttempts = 3

type attachment struct {
	Name string
	Data []byte
}

type imageFetcher struct {
	client *resty.Client
	delay  time.Duration
}

func newImageFetcher(retryDelay time.Duration) *imageFetcher {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "kakomonbot.services.bot.images")
	return &imageFetcher{client: client, delay: retryDelay}
}

func (f *imageFetcher) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	return retryutil.Do(ctx, retryutil.Options{Attempts: imageFetchAttempts, Delay: f.delay},
		func() ([]byte, error) {
			res, err := f.client.R().SetContext(ctx).Get(imageURL)
			if err != nil {
				return nil, err
			}
			if !res.IsSuccess() {
				return nil, fmt.Errorf("failed to fetch image %s: status %d", imageURL, res.StatusCode())
			}
			return res.Body(), nil
		})
}

// downloadAll fetches every URL in order, flattening transparency as it
// goes. Failures do not short-circuit: all failing URLs are collected so
// the caller sees the complete set in one ImageDownloadError.
func (f *imageFetcher) downloadAll(ctx context.Context, imageURLs []string) ([]attachment, error) {
	var attachments []attachment
	var failed []string

	for i, imageURL := range imageURLs {
		data, err := f.fetch(ctx, imageURL)
		if err != nil {
			failed = append(failed, imageURL)
			continue
		}
		attachments = append(attachments, attachment{
			Name: fileName(imageURL, i),
			Data: flattenTransparency(data),
		})
	}

	if len(failed) > 0 {
		return nil, &ImageDownloadError{URLs: failed}
	}
	return attachments, nil
}

// flattenTransparency composites a PNG onto a white background. Anything
// that is not a decodable PNG, or that fails along the way, is returned
// unmodified; broken post-processing must not fail the send.
func flattenTransparency(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || format != "png" {
		return data
	}

	bounds := img.Bounds()
	flattened := image.NewRGBA(bounds)
	draw.Draw(flattened, bounds, image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(flattened, bounds, img, bounds.Min, draw.Over)

	var out bytes.Buffer
	if err := png.Encode(&out, flattened); err != nil {
		return data
	}
	return out.Bytes()
}

// fileName derives an attachment name from the URL's final path segment,
// with an indexed placeholder for unparsable or path-less URLs.
func fileName(imageURL string, index int) string {
	parsed, err := url.Parse(imageURL)
	if err == nil {
		segments := strings.Split(parsed.Path, "/")
		for i := len(segments) - 1; i >= 0; i-- {
			if segments[i] != "" {
				return segments[i]
			}
		}
	}
	return fmt.Sprintf("image-%d.bin", index+1)
}

func chunkAttachments(attachments []attachment, size int) [][]attachment {
	var batches [][]attachment
	for size < len(attachments) {
		batches = append(batches, attachments[:size])
		attachments = attachments[size:]
	}
	if len(attachments) > 0 {
		batches = append(batches, attachments)
	}
	return batches
}
