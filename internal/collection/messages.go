package collection

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Messages are the toast texts a cache raises. An empty text is not shown.
type Messages struct {
	Created      string
	Deleted      string
	CreateFailed string
	UpdateFailed string
	DeleteFailed string
	LoadFailed   string
}

// DefaultMessages derives the texts from a singular noun.
func DefaultMessages(noun string) Messages {
	noun = strings.TrimSpace(noun)
	return Messages{
		Created:      capitalize(noun) + " created.",
		Deleted:      capitalize(noun) + " deleted.",
		CreateFailed: "Failed to create " + noun,
		UpdateFailed: "Failed to update " + noun,
		DeleteFailed: "Failed to delete " + noun,
		LoadFailed:   "Failed to load " + noun + "s.",
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
