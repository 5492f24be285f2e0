package types

const ContextUserKey = "user"

// MIME allow-lists for uploads, checked before any storage write.
var (
	AllowedDocumentMIMETypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}

	AllowedDocumentExtensions = []string{".pdf", ".doc", ".docx"}

	AllowedLogoMIMETypes = []string{
		"image/png",
		"image/jpeg",
	}

	AllowedLogoExtensions = []string{".png", ".jpg", ".jpeg"}
)
