// Package model contains the struct definitions shared across packages.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FileType says what a File is. Folders hold other files and never carry a
// blob; files and images always do.
type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
	TypeImage  FileType = "image"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case TypeFolder, TypeFile, TypeImage:
		return true
	}
	return false
}

// Parent identifies the folder a File lives in. The zero value is Root, which
// can never be confused with a real folder id.
type Parent struct {
	id string
}

// Root is the parent of every top-level file.
var Root = Parent{}

// InFolder returns a Parent referring to the folder with the given id.
// An empty id yields Root.
func InFolder(id string) Parent {
	return Parent{id: id}
}

// IsRoot reports whether p is the root sentinel.
func (p Parent) IsRoot() bool { return p.id == "" }

// ID returns the folder id, or "" for Root.
func (p Parent) ID() string { return p.id }

func (p Parent) String() string {
	if p.IsRoot() {
		return "root"
	}
	return p.id
}

// MarshalJSON renders Root as 0 and a folder as its id string.
func (p Parent) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(p.id)
}

// UnmarshalJSON accepts 0, "0", "", null and an id string.
func (p *Parent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Root
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParseParent(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parent id must be a string or 0: %s", data)
	}
	if n != 0 {
		// Numeric ids never exist; keep the value so lookups fail as not found.
		*p = InFolder(string(data))
		return nil
	}
	*p = Root
	return nil
}

// ParseParent converts a query or form value into a Parent. "" and "0" mean
// Root.
func ParseParent(s string) Parent {
	if s == "" || s == "0" {
		return Root
	}
	return InFolder(s)
}

// File holds metadata about an uploaded file or folder. LocalPath names the
// blob holding the content and is never serialized.
type File struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	Type      FileType `json:"type"`
	IsPublic  bool     `json:"isPublic"`
	ParentID  Parent   `json:"parentId"`
	LocalPath string   `json:"-"`
}
