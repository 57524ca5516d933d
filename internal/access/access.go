// Package access decides who may see a file.
package access

import "github.com/dharsanguruparan/filesmanager/internal/model"

// Allowed reports whether requesterID may see f. An empty requesterID is an
// anonymous caller. File type plays no part in the decision.
func Allowed(f *model.File, requesterID string) bool {
	if f == nil {
		return false
	}
	return f.IsPublic || (requesterID != "" && requesterID == f.UserID)
}
