package shared

import (
	"encoding/hex"
	"encoding/json"
)

// HexBytes is a byte slice persisted as a hex string in JSON documents.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) (err error) {
	var hexString string
	if err = json.Unmarshal(data, &hexString); err != nil {
		return
	}
	*h, err = hex.DecodeString(hexString)
	return
}

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}
