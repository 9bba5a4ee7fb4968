package server

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"

	"wander/protocol"
)

const (
	avatarFrameCount = 3
	avatarFrameSize  = 48
)

var facingColors = map[protocol.Direction]color.RGBA{
	protocol.DirUp:    {R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff},
	protocol.DirDown:  {R: 0xe7, G: 0x6f, B: 0x51, A: 0xff},
	protocol.DirLeft:  {R: 0xe9, G: 0xc4, B: 0x6a, A: 0xff},
	protocol.DirRight: {R: 0x26, G: 0x46, B: 0x53, A: 0xff},
}

// builtinAvatar generates the one avatar definition the playground serves:
// per direction, a short walk cycle of PNG frames encoded the same way the
// real server ships art (base64 data URLs). Keeps the repo free of binary
// assets.
func builtinAvatar() protocol.Avatar {
	av := protocol.Avatar{
		Name:   "explorer",
		Frames: make(map[protocol.Direction][]string, len(protocol.Directions)),
	}
	for _, dir := range protocol.Directions {
		frames := make([]string, avatarFrameCount)
		for i := 0; i < avatarFrameCount; i++ {
			frames[i] = encodeFrame(renderFrame(facingColors[dir], i))
		}
		av.Frames[dir] = frames
	}
	return av
}

// renderFrame draws one walk-cycle frame: a filled body with a stride bar
// whose position depends on the frame index, enough to read as animation.
func renderFrame(body color.RGBA, frame int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, avatarFrameSize, avatarFrameSize))
	for y := 4; y < avatarFrameSize-4; y++ {
		for x := 8; x < avatarFrameSize-8; x++ {
			img.SetRGBA(x, y, body)
		}
	}
	stride := color.RGBA{A: 0xff}
	barY := avatarFrameSize - 10
	barX := 10 + frame*8
	for y := barY; y < barY+4 && y < avatarFrameSize; y++ {
		for x := barX; x < barX+10 && x < avatarFrameSize; x++ {
			img.SetRGBA(x, y, stride)
		}
	}
	return img
}

func encodeFrame(img image.Image) string {
	var buf bytes.Buffer
	// Encoding a small in-memory RGBA never fails.
	png.Encode(&buf, img)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
