package bot

import (
	"fmt"
	"strings"
)

// ImageDownloadError aggregates every image URL that still failed after
// retry exhaustion. The orchestrator treats it as retryable once: the
// provider serves a fresh question per scrape, so the retry is a whole
// new scrape-and-send cycle, not a resend.
type ImageDownloadError struct {
	URLs []string
}

func (e *ImageDownloadError) Error() string {
	return fmt.Sprintf("failed to download %d images: %s", len(e.URLs), strings.Join(e.URLs, ", "))
}
