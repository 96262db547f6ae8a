package common

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a sortable snowflake int64 identifier.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// RandomHex8 returns an 8-character lowercase hex token derived from a
// random UUID, used for attachment storage names.
func RandomHex8() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Sha256HashWithSalt hashes src with the given salt.
func Sha256HashWithSalt(src, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

// GetSecretSalt reads the hash salt from the environment, falling back
// to a static development value.
func GetSecretSalt() string {
	if s := os.Getenv("COMMERCEDESK_SECRET_SALT"); s != "" {
		return s
	}
	return "commercedesk"
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
