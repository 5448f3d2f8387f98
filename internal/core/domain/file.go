package domain

const (
	MimeTypePDF       = "application/pdf"
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
	MimeTypePlainText = "text/plain"
)

// SourceFile is a handle to a file owned by the external file store.
type SourceFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
	// Transient is set when the file carries the ownership tag written on converted artifacts.
	Transient bool `json:"transient,omitempty"`
}

type ConvertOptions struct {
	Name           string
	OCRLanguage    string
	TargetMimeType string
	ParentID       string
	// ServerSideCopy converts by copying the stored source instead of re-uploading its bytes.
	ServerSideCopy bool
}
