package files

import "errors"

// Validation errors, reported to the caller as a rejected request. The
// messages are shown to API clients verbatim.
var (
	ErrMissingName     = errors.New("Missing name")
	ErrMissingType     = errors.New("Missing type")
	ErrMissingData     = errors.New("Missing data")
	ErrParentNotFound  = errors.New("Parent not found")
	ErrParentNotFolder = errors.New("Parent is not a folder")
	ErrInvalidData     = errors.New("Invalid data")
	ErrInvalidSize     = errors.New("Invalid size")
)

// Lookup errors. ErrNotFound covers both "does not exist" and "not yours".
var (
	ErrNotFound        = errors.New("Not found")
	ErrNoContent       = errors.New("A folder doesn't have content")
	ErrVariantNotFound = errors.New("Thumbnail not found")
)

// IsValidation reports whether err is a caller mistake rather than a lookup
// miss or an infrastructure failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrMissingName, ErrMissingType, ErrMissingData, ErrParentNotFound,
		ErrParentNotFolder, ErrInvalidData, ErrInvalidSize, ErrNoContent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
