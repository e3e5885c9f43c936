package constants

// Content types accepted as comprobante evidence, keyed by sniffed MIME type.
// Images are re-encoded to WebP before they are stored.
var UploadTypes = map[string]struct {
	Ext     string
	IsImage bool
}{
	"image/jpeg":      {Ext: ".jpg", IsImage: true},
	"image/png":       {Ext: ".png", IsImage: true},
	"image/webp":      {Ext: ".webp", IsImage: true},
	"application/pdf": {Ext: ".pdf"},
}

const UploadPrefix = "comprobantes"
