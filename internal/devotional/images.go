package devotional

import (
	"context"
	"sync"

	"github.com/selahapp/selah/internal/providers"
)

const (
	heroImageWidth   = 1024
	heroImageHeight  = 768
	sectionImageSize = 512
)

// imageJob is one prompt to resolve into an image URL.
type imageJob struct {
	Index  int
	Prompt string
	Width  int
	Height int
}

// attachImages resolves every job concurrently and reports each result
// individually through onReady as it lands, not batched. A failed render
// never surfaces: the renderer degrades to a placeholder URL, so the group
// always settles. Returns after every job has reported.
func attachImages(ctx context.Context, renderer providers.ImageRenderer, ageRange string, jobs []imageJob, onReady func(index int, url string)) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job imageJob) {
			defer wg.Done()
			url := renderImage(ctx, renderer, ageRange, job)
			onReady(job.Index, url)
		}(job)
	}
	wg.Wait()
}

func renderImage(ctx context.Context, renderer providers.ImageRenderer, ageRange string, job imageJob) string {
	result, err := renderer.Render(ctx, &providers.ImageRequest{
		Prompt:   job.Prompt,
		Width:    job.Width,
		Height:   job.Height,
		AgeRange: ageRange,
	})
	if err != nil || result == nil || result.URL == "" {
		return providers.PlaceholderURL(job.Prompt, job.Width, job.Height)
	}
	return result.URL
}
