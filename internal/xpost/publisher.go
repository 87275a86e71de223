package xpost

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	defaultAltText = "Image attached via postcraft"
	maxAltRunes    = 1000
)

// ImageSaver writes a finished post image somewhere the posters can read it.
type ImageSaver interface {
	SaveFinal(img image.Image) (string, error)
}

// Publisher implements compose.Publisher by cross-posting to every poster.
type Publisher struct {
	posters []Poster
	saver   ImageSaver
	out     io.Writer
	dryRun  bool
}

// NewPublisher returns a publisher that reports progress to out.
func NewPublisher(posters []Poster, saver ImageSaver, out io.Writer, dryRun bool) *Publisher {
	return &Publisher{posters: posters, saver: saver, out: out, dryRun: dryRun}
}

// Publish saves the post image and sends the post to all targets. Failures
// from individual targets are joined; the other targets still get the post.
func (p *Publisher) Publish(ctx context.Context, post *compose.Post) error {
	if post == nil {
		return errors.New("nil post")
	}

	req := Request{
		Message:  strings.TrimSpace(post.Caption),
		Tags:     post.Tags,
		ImageAlt: altText(post.Caption),
	}
	if post.Image != nil {
		path, err := p.saver.SaveFinal(post.Image)
		if err != nil {
			return fmt.Errorf("save post image: %w", err)
		}
		logutil.Debugf("post image saved: path=%s", path)
		req.ImagePath = path
	}

	return dispatch(ctx, p.posters, req, p.out, p.dryRun)
}

func altText(caption string) string {
	alt := strings.Join(strings.Fields(caption), " ")
	if alt == "" {
		return defaultAltText
	}
	if runes := []rune(alt); len(runes) > maxAltRunes {
		alt = string(runes[:maxAltRunes])
	}
	return alt
}

func dispatch(ctx context.Context, posters []Poster, req Request, out io.Writer, simulate bool) error {
	if simulate {
		for _, poster := range posters {
			fmt.Fprintf(out, "[dry-run] would post to %s: %q\n", poster.Name(), FormatStatus(req))
		}
		if req.ImagePath != "" {
			fmt.Fprintf(out, "[dry-run] image: %s (alt: %q)\n", req.ImagePath, req.ImageAlt)
		}
		return nil
	}

	var errs []error
	for _, poster := range posters {
		fmt.Fprintf(out, "posting to %s...\n", poster.Name())
		if err := poster.Post(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", poster.Name(), err))
			continue
		}
		fmt.Fprintf(out, "posted to %s\n", poster.Name())
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
