package swish

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const qrModuleSize = 4 // svg units per QR module

// renderQRSVG encodes the payload as a QR code and renders it as a standalone
// SVG document. The bitmap from go-qrcode already includes the quiet zone.
func renderQRSVG(payload string) (string, error) {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", errors.Wrap(err, "encode qr")
	}

	bitmap := code.Bitmap()
	size := len(bitmap) * qrModuleSize

	var b strings.Builder
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		size, size,
	)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#fff"/>`, size, size)
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d"/>`,
					x*qrModuleSize, y*qrModuleSize, qrModuleSize, qrModuleSize)
			}
		}
	}
	b.WriteString(`</svg>`)
	return b.String(), nil
}
