package model

import (
	"sort"
	"time"
)

// Attachment is an opaque reference produced by the upload handler.
// The hub never interprets either field.
type Attachment struct {
	Stored   string `json:"stored"`
	Original string `json:"original"`
}

type Kind string

const (
	KindSystem  Kind = "system"
	KindUser    Kind = "user"
	KindPrivate Kind = "private"
)

// Message is one chat event. From/To carry identity ids and are only
// set for private messages.
type Message struct {
	User       string      `json:"user"`
	Avatar     string      `json:"avatar,omitempty"`
	Text       string      `json:"text"`
	Kind       Kind        `json:"type"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Time       time.Time   `json:"time"`
	From       string      `json:"from,omitempty"`
	To         string      `json:"to,omitempty"`
}

// Profile is the durable view of a user, keyed by identity id.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Notification struct {
	Kind     string    `json:"type"`
	FromID   string    `json:"fromId"`
	FromName string    `json:"fromName"`
	Text     string    `json:"text,omitempty"`
	Time     time.Time `json:"time"`
	Read     bool      `json:"read"`
}

const (
	NotifFriendRequest  = "friend_request"
	NotifFriendAccepted = "friend_accepted"
)

// ChannelsDoc is the durable snapshot of every channel's message log.
type ChannelsDoc map[string][]Message

// SocialDoc is the durable snapshot of the friend graph and everything
// hanging off it. Edges store both directions of each friendship so a
// single lookup answers "friends of X". Requests map a target identity
// to the identities with a pending ask. Threads key private
// conversations by PairKey.
type SocialDoc struct {
	Profiles  map[string]Profile        `json:"profiles"`
	Edges     map[string][]string       `json:"edges"`
	Requests  map[string][]string       `json:"requests"`
	Mailboxes map[string][]Notification `json:"mailboxes"`
	Threads   map[string][]Message      `json:"threads"`
}

func NewSocialDoc() SocialDoc {
	return SocialDoc{
		Profiles:  map[string]Profile{},
		Edges:     map[string][]string{},
		Requests:  map[string][]string{},
		Mailboxes: map[string][]Notification{},
		Threads:   map[string][]Message{},
	}
}

// Init fills nil maps after JSON decoding so callers never index into nil.
func (d *SocialDoc) Init() {
	if d.Profiles == nil {
		d.Profiles = map[string]Profile{}
	}
	if d.Edges == nil {
		d.Edges = map[string][]string{}
	}
	if d.Requests == nil {
		d.Requests = map[string][]string{}
	}
	if d.Mailboxes == nil {
		d.Mailboxes = map[string][]Notification{}
	}
	if d.Threads == nil {
		d.Threads = map[string][]Message{}
	}
}

// PairKey names the single logical thread shared by two identities,
// independent of direction.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// HasEdge reports whether a symmetric friend edge exists.
func (d *SocialDoc) HasEdge(a, b string) bool {
	for _, id := range d.Edges[a] {
		if id == b {
			return true
		}
	}
	return false
}

// AddEdge records a friendship in both directions. Re-adding an
// existing edge is a no-op.
func (d *SocialDoc) AddEdge(a, b string) {
	if a == b || d.HasEdge(a, b) {
		return
	}
	d.Edges[a] = append(d.Edges[a], b)
	d.Edges[b] = append(d.Edges[b], a)
}

// HasRequest reports whether `from` has a pending request to `target`.
func (d *SocialDoc) HasRequest(target, from string) bool {
	for _, id := range d.Requests[target] {
		if id == from {
			return true
		}
	}
	return false
}

func (d *SocialDoc) AddRequest(target, from string) {
	if d.HasRequest(target, from) {
		return
	}
	d.Requests[target] = append(d.Requests[target], from)
}

// RemoveRequest drops a pending request and reports whether it existed.
func (d *SocialDoc) RemoveRequest(target, from string) bool {
	reqs := d.Requests[target]
	for i, id := range reqs {
		if id == from {
			d.Requests[target] = append(reqs[:i], reqs[i+1:]...)
			if len(d.Requests[target]) == 0 {
				delete(d.Requests, target)
			}
			return true
		}
	}
	return false
}

// FriendsOf returns the friend identities of `id` sorted by display
// name for stable list rendering.
func (d *SocialDoc) FriendsOf(id string) []Profile {
	out := make([]Profile, 0, len(d.Edges[id]))
	for _, fid := range d.Edges[id] {
		if p, ok := d.Profiles[fid]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
