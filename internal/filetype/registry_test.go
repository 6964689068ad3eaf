package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		fileName string
		mime     string
		preview  PreviewKind
	}{
		{"report.pdf", "application/pdf", PreviewPDF},
		{"notes.txt", "text/plain", PreviewText},
		{"photo.PNG", "image/png", PreviewImage},
		{"deck.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", PreviewOffice},
		{"archive.zip", "application/zip", PreviewNone},
		{"blob.unknown-ext", "application/octet-stream", PreviewNone},
		{"no-extension", "application/octet-stream", PreviewNone},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			entry := registry.Lookup(tt.fileName)
			assert.Equal(t, tt.mime, entry.MIMEType)
			assert.Equal(t, tt.preview, entry.Preview)
		})
	}
}
