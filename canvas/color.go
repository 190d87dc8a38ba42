package canvas

import (
	"fmt"
	"strings"
)

type RGBA [4]byte

var White = RGBA{0xff, 0xff, 0xff, 0xff}

// named mirrors the small palette the drawing toolbar exposes. Resolving
// through a table gives every client identical channel values for a
// named color, which exact-match flood fill depends on.
var named = map[string]RGBA{
	"black":  {0x00, 0x00, 0x00, 0xff},
	"white":  White,
	"red":    {0xff, 0x00, 0x00, 0xff},
	"green":  {0x00, 0x80, 0x00, 0xff},
	"blue":   {0x00, 0x00, 0xff, 0xff},
	"yellow": {0xff, 0xff, 0x00, 0xff},
	"orange": {0xff, 0xa5, 0x00, 0xff},
	"purple": {0x80, 0x00, 0x80, 0xff},
	"pink":   {0xff, 0xc0, 0xcb, 0xff},
	"brown":  {0xa5, 0x2a, 0x2a, 0xff},
	"gray":   {0x80, 0x80, 0x80, 0xff},
	"cyan":   {0x00, 0xff, 0xff, 0xff},
}

// ParseColor resolves a named or #rgb/#rrggbb color to concrete channel
// values.
func ParseColor(s string) (RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if c, ok := named[s]; ok {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3:
			var c RGBA
			for i := 0; i < 3; i++ {
				v, err := hexNibble(hex[i])
				if err != nil {
					return RGBA{}, err
				}
				c[i] = v<<4 | v
			}
			c[3] = 0xff
			return c, nil
		case 6:
			var c RGBA
			for i := 0; i < 3; i++ {
				hi, err := hexNibble(hex[2*i])
				if err != nil {
					return RGBA{}, err
				}
				lo, err := hexNibble(hex[2*i+1])
				if err != nil {
					return RGBA{}, err
				}
				c[i] = hi<<4 | lo
			}
			c[3] = 0xff
			return c, nil
		}
	}

	return RGBA{}, fmt.Errorf("unrecognized color %q", s)
}

func hexNibble(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit %q", b)
}
