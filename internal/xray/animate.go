package xray

import (
	"bytes"
	"errors"

	"github.com/kettek/apng"
)

// Animate renders the frames as a looping APNG, each shown for frameDelay
// seconds.
func Animate(frames []*Image, frameDelay float64) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to animate")
	}

	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0,
	}

	for i, frame := range frames {
		a.Frames[i] = apng.Frame{
			Image:            frame.Gray(),
			DelayNumerator:   uint16(frameDelay * 1000),
			DelayDenominator: 1000,
		}
	}

	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
