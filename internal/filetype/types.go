package filetype

// PreviewKind tells the client how a file can be previewed.
type PreviewKind string

const (
	PreviewText   PreviewKind = "text"
	PreviewImage  PreviewKind = "image"
	PreviewPDF    PreviewKind = "pdf"
	PreviewOffice PreviewKind = "office"
	PreviewNone   PreviewKind = "none"
)

// Entry describes one file extension.
type Entry struct {
	MIMEType string      `yaml:"mime_type" json:"mime_type"`
	Preview  PreviewKind `yaml:"preview" json:"preview"`
}

// registryFile is the shape of the embedded YAML document.
type registryFile struct {
	Extensions map[string]Entry `yaml:"extensions"`
}
