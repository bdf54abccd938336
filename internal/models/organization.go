// Package models defines the wire types of the conversation API.
package models

// Organization is the account scope required by every conversation call.
type Organization struct {
	UUID string `json:"uuid"`
	Name string `json:"name,omitempty"`
}
