// Package view keeps the export control in sync with the host page's route.
package view

import (
	"net/url"
	"slices"
	"strings"
)

// Kind classifies the view shown by the host page.
type Kind int

const (
	// KindOther is any view without an export control.
	KindOther Kind = iota
	// KindSingle is a single conversation view.
	KindSingle
	// KindList is the all-conversations view.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindList:
		return "list"
	default:
		return "other"
	}
}

// Path segments recognized by Classify.
const (
	singleSegment = "chat"
	listSegment   = "chats"
)

// Control labels per view.
const (
	LabelExportChat = "Export Chat"
	LabelExportAll  = "Export All Chats"
)

// State is the classification of one location. It is derived, never stored
// beyond the last pass of the Synchronizer.
type State struct {
	Kind           Kind
	ConversationID string
}

// Label returns the control label for the state, or "" for KindOther.
func (s State) Label() string {
	switch s.Kind {
	case KindSingle:
		return LabelExportChat
	case KindList:
		return LabelExportAll
	default:
		return ""
	}
}

func (s State) String() string {
	if s.Kind == KindSingle {
		return s.Kind.String() + "(" + s.ConversationID + ")"
	}
	return s.Kind.String()
}

// Classify maps a location string to a State. Query and fragment are ignored.
//
//	https://claude.ai/chat/abc123  -> KindSingle("abc123")
//	https://claude.ai/chats        -> KindList
//	https://claude.ai/new          -> KindOther
func Classify(location string) State {
	path := location
	if u, err := url.Parse(location); err == nil {
		path = u.Path
	}

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return State{Kind: KindOther}
	}

	last := len(segments) - 1
	if slices.Contains(segments[:last], singleSegment) {
		return State{Kind: KindSingle, ConversationID: segments[last]}
	}
	if segments[last] == listSegment {
		return State{Kind: KindList}
	}
	return State{Kind: KindOther}
}
