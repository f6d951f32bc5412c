package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/claimflow/internal/flagx"
	"github.com/dmitrijs2005/claimflow/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseDSN          string         `json:"database_dsn"`
	StorageBackend       string         `json:"storage_backend"`
	UploadDir            string         `json:"upload_dir"`
	EncryptionKeyHex     string         `json:"encryption_key_hex"`
	EncryptionPassphrase string         `json:"encryption_passphrase"`
	EncryptionKeySalt    string         `json:"encryption_key_salt"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c/-config command-line
// flags; when neither is set, no JSON file is loaded. Only fields present
// (non-zero) in the file override the current values. An unreadable or
// invalid file panics: a requested config file that cannot be applied is
// a startup error.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = jc.EndpointAddrHTTP
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.StorageBackend != "" {
		config.StorageBackend = jc.StorageBackend
	}
	if jc.UploadDir != "" {
		config.UploadDir = jc.UploadDir
	}
	if jc.EncryptionKeyHex != "" {
		config.EncryptionKeyHex = jc.EncryptionKeyHex
	}
	if jc.EncryptionPassphrase != "" {
		config.EncryptionPassphrase = jc.EncryptionPassphrase
	}
	if jc.EncryptionKeySalt != "" {
		config.EncryptionKeySalt = jc.EncryptionKeySalt
	}
	if jc.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}
}
