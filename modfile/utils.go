package modfile

import (
	"bytes"
	"strings"
)

func convertCstring(data []byte) string {
	i := bytes.IndexByte(data, 0)
	if i != -1 {
		data = data[:i]
	}
	return strings.TrimRight(string(data), " ")
}

// signatureChannels maps a known format tag to its channel count.
// FLT8 is treated as a plain 8-channel module.
func signatureChannels(sig string) int {
	switch sig {
	case "M.K.", "M!K!", "FLT4", "4CHN":
		return 4
	case "6CHN":
		return 6
	case "FLT8", "8CHN":
		return 8
	case "10CH":
		return 10
	case "12CH":
		return 12
	case "14CH":
		return 14
	case "16CH":
		return 16
	}
	return 0
}

func decodeFinetune(b byte) int8 {
	return int8(b<<4) >> 4
}
