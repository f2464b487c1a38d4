package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 模板图片只接受这几种格式
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

const MaxImageSize = 5 << 20
