package compose

import (
	"image"
	"strings"
)

// EditPipeline runs img through the fixed editing order: crop, blur, fade,
// caption, sequence marker (only for index > 1) and brand. The marker shows
// how many posts precede this one in the batch.
func EditPipeline(editor ImageEditor, img image.Image, caption string, index int) image.Image {
	out := editor.CropCenter(img)
	out = editor.Blur(out)
	out = editor.Fade(out)
	out = editor.WriteText(out, caption)
	if index > 1 {
		out = editor.WriteCount(out, index-1)
	}
	return editor.WriteBrand(out)
}

// ParseTags splits a generated candidate into tags on whitespace. Empty
// tokens are dropped and a leading '#' is removed so publishers can add
// their own.
func ParseTags(candidate string) []string {
	fields := strings.Fields(candidate)
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		tag := strings.TrimLeft(field, "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
