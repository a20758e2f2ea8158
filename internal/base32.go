package internal

import (
	"encoding/base32"

	"github.com/google/uuid"
)

// Lower-case alphabet so object keys stay short and safe in paths.
const alphabet = "abcdefghijklmnopqrstuvwxyz156789"

var keyEncoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// EncodeUUIDToBase32 renders id as a 26 character key.
func EncodeUUIDToBase32(id uuid.UUID) string {
	return keyEncoding.EncodeToString(id[:])
}

// DecodeBase32ToUUID reverses EncodeUUIDToBase32.
func DecodeBase32ToUUID(s string) (uuid.UUID, error) {
	data, err := keyEncoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(data)
}
