package config

// StorageConfig points the avatar store at an S3-compatible bucket. An empty
// Bucket disables avatar uploads.
type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for MinIO and friends, path-style addressing
	AccessKey string
	SecretKey string
	PublicURL string // base URL used to build avatar_url; defaults to Endpoint/Bucket
}

func (s StorageConfig) Enabled() bool { return s.Bucket != "" }

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Bucket:    envStr("S3_BUCKET", ""),
		Region:    envStr("S3_REGION", "us-east-1"),
		Endpoint:  envStr("S3_ENDPOINT", ""),
		AccessKey: envStr("S3_ACCESS_KEY", ""),
		SecretKey: envStr("S3_SECRET_KEY", ""),
		PublicURL: envStr("S3_PUBLIC_URL", ""),
	}
}
