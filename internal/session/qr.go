package session

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPNG renders the token's scanner URL as a PNG of the given pixel size.
func QRPNG(t Token, baseURL string, size int) ([]byte, error) {
	return qrcode.Encode(t.ScannerURL(baseURL), qrcode.Medium, size)
}

// QRDataURL renders the QR image as a data URL for direct embedding in a page.
func QRDataURL(t Token, baseURL string, size int) (string, error) {
	png, err := QRPNG(t, baseURL, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
