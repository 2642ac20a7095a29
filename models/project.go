package models

import (
	"encoding/json"
	"fmt"
)

// Project is one Overleaf project as advertised by the projects dashboard.
// Only the fields the tool needs are decoded; the dashboard blob carries
// many more that are ignored.
type Project struct {
	// ID is the Overleaf project identifier (a 24-char hex string).
	ID string `json:"id"`

	// Name is the human-readable project name shown in the dashboard.
	Name string `json:"name"`

	// LastUpdated is the server-side modification timestamp, passed through
	// verbatim because Overleaf has changed its format between releases.
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// ProjectList is the decoded form of the "ol-prefetchedProjectsBlob" meta
// tag on the Overleaf projects page.
type ProjectList struct {
	// TotalSize is the number of projects the server reports for the account.
	TotalSize int `json:"totalSize"`

	// Projects holds the project entries themselves.
	Projects []Project `json:"projects"`
}

// ProjectMetadata is the nested mapping extracted from the "project" field
// of a joinProjectResponse event payload. It is the sole result of the
// realtime join flow.
//
// A ProjectMetadata value is never nil: when the payload carries no usable
// "project" field the result is an empty (non-nil) map. Once produced it is
// treated as immutable by all callers.
type ProjectMetadata map[string]any

// String renders the metadata as indented JSON, preserving nested
// mapping/sequence/scalar shapes. It implements [fmt.Stringer].
func (m ProjectMetadata) String() string {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(m))
	}
	return string(out)
}

// RootDocID returns the project's root document id if the metadata carries
// one, or the empty string.
func (m ProjectMetadata) RootDocID() string {
	if v, ok := m["rootDoc_id"].(string); ok {
		return v
	}
	return ""
}

// Name returns the project name from the metadata, or the empty string.
func (m ProjectMetadata) Name() string {
	if v, ok := m["name"].(string); ok {
		return v
	}
	return ""
}

// RootFolderID returns the id of the project's root folder, the upload
// target for files pushed to the project root. Empty when the metadata
// does not carry a folder tree.
func (m ProjectMetadata) RootFolderID() string {
	folders, ok := m["rootFolder"].([]any)
	if !ok || len(folders) == 0 {
		return ""
	}
	root, ok := folders[0].(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := root["_id"].(string); ok {
		return id
	}
	return ""
}
