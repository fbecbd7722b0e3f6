package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKeyDirectionIndependent(t *testing.T) {
	require.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	require.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}

func TestAddEdgeIdempotentAndSymmetric(t *testing.T) {
	d := NewSocialDoc()
	d.AddEdge("a", "b")
	d.AddEdge("a", "b")
	d.AddEdge("b", "a")

	require.Len(t, d.Edges["a"], 1)
	require.Len(t, d.Edges["b"], 1)
	require.True(t, d.HasEdge("a", "b"))
	require.True(t, d.HasEdge("b", "a"))
}

func TestAddEdgeToSelfIgnored(t *testing.T) {
	d := NewSocialDoc()
	d.AddEdge("a", "a")
	require.Empty(t, d.Edges)
}

func TestRequestLifecycle(t *testing.T) {
	d := NewSocialDoc()
	d.AddRequest("target", "from")
	d.AddRequest("target", "from") // duplicate is a no-op
	require.Len(t, d.Requests["target"], 1)

	require.True(t, d.RemoveRequest("target", "from"))
	require.False(t, d.RemoveRequest("target", "from"))
	_, ok := d.Requests["target"]
	require.False(t, ok, "empty request list is pruned")
}

func TestFriendsOfSortedByName(t *testing.T) {
	d := NewSocialDoc()
	d.Profiles["1"] = Profile{ID: "1", Name: "zoe"}
	d.Profiles["2"] = Profile{ID: "2", Name: "adam"}
	d.AddEdge("me", "1")
	d.AddEdge("me", "2")

	friends := d.FriendsOf("me")
	require.Len(t, friends, 2)
	require.Equal(t, "adam", friends[0].Name)
	require.Equal(t, "zoe", friends[1].Name)
}

func TestSocialDocInitAfterDecode(t *testing.T) {
	var d SocialDoc
	require.NoError(t, json.Unmarshal([]byte(`{"profiles":{"x":{"id":"x","name":"n"}}}`), &d))
	d.Init()

	require.NotNil(t, d.Edges)
	require.NotNil(t, d.Requests)
	require.NotNil(t, d.Mailboxes)
	require.NotNil(t, d.Threads)
	require.Equal(t, "n", d.Profiles["x"].Name)
}
