package bot

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	require.Equal(t, "photo.png", fileName("https://example.com/a/b/photo.png", 0))
	require.Equal(t, "photo.png", fileName("https://example.com/photo.png/", 0))
	require.Equal(t, "image-1.bin", fileName("https://example.com", 0))
	require.Equal(t, "image-3.bin", fileName("://not-a-url", 2))
}

func TestChunkAttachments(t *testing.T) {
	attachments := make([]attachment, 25)
	batches := chunkAttachments(attachments, MaxFilesPerMessage)

	require.Len(t, batches, 3)
	require.Len(t, batches[0], 10)
	require.Len(t, batches[1], 10)
	require.Len(t, batches[2], 5)

	require.Empty(t, chunkAttachments(nil, MaxFilesPerMessage))
}

func TestFlattenTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0})       // fully transparent
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 0, B: 0, A: 255})   // opaque red
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, src))

	flattened := flattenTransparency(encoded.Bytes())
	decoded, err := png.Decode(bytes.NewReader(flattened))
	require.NoError(t, err)

	r, g, b, a := decoded.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), a)
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0xffff), g)
	require.Equal(t, uint32(0xffff), b)

	r, _, _, a = decoded.At(1, 1).RGBA()
	require.Equal(t, uint32(0xffff), a)
	require.Equal(t, uint32(0xffff), r)
}

func TestFlattenTransparencyFallsBackOnGarbage(t *testing.T) {
	data := []byte("definitely not an image")
	require.Equal(t, data, flattenTransparency(data))
}

func TestFetchRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	fetcher := newImageFetcher(0)
	data, err := fetcher.fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("image bytes"), data)
	require.Equal(t, 3, calls)
}

func TestFetchExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newImageFetcher(0)
	_, err := fetcher.fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.Equal(t, imageFetchAttempts, calls)
}

func TestDownloadAllCollectsEveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.png":
			w.Write([]byte("ok"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := newImageFetcher(0)
	_, err := fetcher.downloadAll(context.Background(), []string{
		server.URL + "/good.png",
		server.URL + "/missing-1.png",
		server.URL + "/missing-2.png",
	})

	var downloadErr *ImageDownloadError
	require.ErrorAs(t, err, &downloadErr)
	// every failing url is aggregated, not just the first
	require.Equal(t, []string{
		server.URL + "/missing-1.png",
		server.URL + "/missing-2.png",
	}, downloadErr.URLs)
}

func TestDownloadAllSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newImageFetcher(0)
	attachments, err := fetcher.downloadAll(context.Background(), []string{
		server.URL + "/one.png",
		server.URL + "/two.png",
	})
	require.NoError(t, err)
	require.Len(t, attachments, 2)
	require.Equal(t, "one.png", attachments[0].Name)
	require.Equal(t, "two.png", attachments[1].Name)
}
