package objects

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Area names one of the two logical partitions of the object store.
type Area string

const (
	Temporary Area = "temporary"
	Permanent Area = "permanent"
)

// Stage labels the pipeline step that triggered a best-effort cleanup.
type Stage string

const (
	StagePromote Stage = "promote"
	StageSweep   Stage = "sweep"
)

var (
	// ErrNotTemporary indicates a promotion source outside the temporary area.
	ErrNotTemporary = errors.New("object is not in the temporary area")
	// ErrForeignURL indicates a URL that does not belong to either area.
	ErrForeignURL = errors.New("url does not belong to the object store")
)

// Object is a handle to a stored blob.
type Object struct {
	Area Area   `json:"area"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Promotion reports a temporary object copied into the permanent area.
// SourceDeleteErr records a failed removal of the temporary copy; the
// promotion itself still succeeded.
type Promotion struct {
	Permanent       *Object
	Source          *Object
	SourceDeleteErr error
}

// Name generates a unique object name that keeps the extension of original.
// The extension is the text from the last dot, unless that dot is the first
// character. Extensions that are not plain alphanumerics are dropped.
func Name(original string) string {
	return uuid.NewString() + extension(original)
}

func extension(original string) string {
	if i := strings.LastIndexAny(original, `/\`); i >= 0 {
		original = original[i+1:]
	}

	i := strings.LastIndex(original, ".")
	if i <= 0 || i == len(original)-1 {
		return ""
	}

	ext := original[i+1:]
	if strings.IndexFunc(ext, func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	}) >= 0 {
		return ""
	}
	return "." + ext
}
