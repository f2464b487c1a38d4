package util

import (
	"github.com/gabriel-vasile/mimetype"
)

// ValidateMimeType 按内容嗅探 MIME 类型，而不是信任扩展名或请求头
func ValidateMimeType(data []byte, allowed []string) (*mimetype.MIME, error) {
	mtype := mimetype.Detect(data)
	for _, a := range allowed {
		if mtype.Is(a) {
			return mtype, nil
		}
	}
	return mtype, &UploadError{Reason: "unsupported file type " + mtype.String()}
}
