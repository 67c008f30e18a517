package bill

import "strings"

var receiptExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// AllowedReceipt reports whether a file name has an accepted image extension
func AllowedReceipt(name string) bool {
	_, ok := receiptExtensions[extension(name)]
	return ok
}

// ReceiptContentType returns the MIME type of an accepted receipt, or
// application/octet-stream for anything else
func ReceiptContentType(name string) string {
	if ct, ok := receiptExtensions[extension(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}
