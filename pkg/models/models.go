// Package models defines the value types exchanged with the envhub API:
// environment listings and definitions, open-session results, revisions and
// revision tags, and check/update diagnostics.
package models

import "time"

// OrgEnvironment is one entry in an organization's environment listing.
type OrgEnvironment struct {
	Organization string    `json:"organization,omitempty"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created,omitempty"`
	Modified     time.Time `json:"modified,omitempty"`
}

// OrgEnvironments is a page of an organization's environments.
type OrgEnvironments struct {
	Environments []OrgEnvironment `json:"environments,omitempty"`
	NextToken    string           `json:"nextToken,omitempty"`
}

// EnvironmentDefinition is the authored shape of an environment: the
// environments it imports plus its value tree. It round-trips through YAML
// for update and check calls.
type EnvironmentDefinition struct {
	Imports []string       `json:"imports,omitempty" yaml:"imports,omitempty"`
	Values  map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// OpenEnvironment identifies an open evaluation session for an environment.
type OpenEnvironment struct {
	ID          string                  `json:"id"`
	Diagnostics []EnvironmentDiagnostic `json:"diagnostics,omitempty"`
}

// Environment is the evaluated form of an environment read from an open
// session.
type Environment struct {
	Exprs      map[string]any   `json:"exprs,omitempty"`
	Properties map[string]Value `json:"properties,omitempty"`
	Schema     any              `json:"schema,omitempty"`
}

// Value is one evaluated property. Its Value field may itself be a nested
// {"value": ...} wrapper tree; client.PropertiesToValues flattens those.
type Value struct {
	Value   any   `json:"value,omitempty"`
	Secret  bool  `json:"secret,omitempty"`
	Unknown bool  `json:"unknown,omitempty"`
	Trace   Trace `json:"trace,omitempty"`
}

// Trace records where a value was defined and what it overrides.
type Trace struct {
	Def  *Range `json:"def,omitempty"`
	Base *Value `json:"base,omitempty"`
}

// Range is a span in an environment definition document.
type Range struct {
	Environment string `json:"environment,omitempty"`
	Begin       Pos    `json:"begin"`
	End         Pos    `json:"end"`
}

// Pos is a position within an environment definition document.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Byte   int `json:"byte"`
}

// EnvironmentDiagnostic is a single problem reported for an environment
// definition.
type EnvironmentDiagnostic struct {
	Summary string `json:"summary"`
	Path    string `json:"path,omitempty"`
	Range   *Range `json:"range,omitempty"`
}

// EnvironmentDiagnostics is the response body of an update call.
type EnvironmentDiagnostics struct {
	Diagnostics []EnvironmentDiagnostic `json:"diagnostics,omitempty"`
}

// CheckEnvironment is the result of checking a definition without saving it.
type CheckEnvironment struct {
	Exprs       map[string]any          `json:"exprs,omitempty"`
	Properties  map[string]Value        `json:"properties,omitempty"`
	Diagnostics []EnvironmentDiagnostic `json:"diagnostics,omitempty"`
}

// EnvironmentRevision is one saved revision of an environment.
type EnvironmentRevision struct {
	Number       int       `json:"number"`
	Created      time.Time `json:"created,omitempty"`
	CreatorLogin string    `json:"creatorLogin,omitempty"`
	CreatorName  string    `json:"creatorName,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

// EnvironmentRevisionTag is a named pointer at a revision.
type EnvironmentRevisionTag struct {
	Name        string    `json:"name"`
	Revision    int       `json:"revision"`
	Created     time.Time `json:"created,omitempty"`
	Modified    time.Time `json:"modified,omitempty"`
	EditorLogin string    `json:"editorLogin,omitempty"`
	EditorName  string    `json:"editorName,omitempty"`
}

// EnvironmentRevisionTags is a page of revision tags.
type EnvironmentRevisionTags struct {
	Tags      []EnvironmentRevisionTag `json:"tags,omitempty"`
	NextToken string                   `json:"nextToken,omitempty"`
}

// UpdateEnvironmentRevisionTag is the request body for creating or moving a
// revision tag.
type UpdateEnvironmentRevisionTag struct {
	Revision int `json:"revision"`
}
