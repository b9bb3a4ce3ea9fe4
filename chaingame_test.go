/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/moviechain/chain"
)

var (
	stubHanks  = chain.Entity{ID: 31, Kind: chain.KindPerson, Name: "Tom Hanks", Popularity: 60}
	stubWright = chain.Entity{ID: 32, Kind: chain.KindPerson, Name: "Robin Wright", Popularity: 30}
	stubBrando = chain.Entity{ID: 3084, Kind: chain.KindPerson, Name: "Marlon Brando", Popularity: 20}
	stubGump   = chain.Entity{ID: 13, Kind: chain.KindMovie, Name: "Forrest Gump", ReleaseDate: "1994-06-23", VoteCount: 27000, VoteAverage: 8.5, Popularity: 70}
)

// stubDirectory answers combined searches by exact query text.
type stubDirectory struct {
	combined map[string][]chain.Entity
	credits  map[int][]chain.Entity
	cast     map[int][]chain.Entity
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		combined: map[string][]chain.Entity{
			"Tom Hanks":     {stubHanks},
			"Robin Wright":  {stubWright},
			"Robin Wrigth":  {stubWright},
			"Marlon Brando": {stubBrando},
		},
		credits: map[int][]chain.Entity{
			stubHanks.ID:  {stubGump},
			stubWright.ID: {stubGump},
		},
		cast: map[int][]chain.Entity{
			stubGump.ID: {stubHanks, stubWright},
		},
	}
}

func (d *stubDirectory) SearchCombined(_ context.Context, text string) ([]chain.Entity, error) {
	return append([]chain.Entity(nil), d.combined[text]...), nil
}

func (d *stubDirectory) SearchByKind(context.Context, string, chain.Kind) ([]chain.Entity, error) {
	return nil, nil
}

func (d *stubDirectory) MovieCredits(_ context.Context, personID int) ([]chain.Entity, error) {
	return append([]chain.Entity(nil), d.credits[personID]...), nil
}

func (d *stubDirectory) MovieCast(_ context.Context, movieID int) ([]chain.Entity, error) {
	return append([]chain.Entity(nil), d.cast[movieID]...), nil
}

func dialGame(t *testing.T, srv *httptest.Server, gameID, playerID string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("Cookie", playerCookieName+"="+playerID)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chain/" + gameID + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return conn
}

// readMessage skips messages until one of type typ arrives.
func readMessage(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))

		if msg["type"] == typ {
			return msg
		}
	}
}

func chainNames(msg map[string]any) []string {
	var names []string

	for _, e := range msg["chain"].([]any) {
		names = append(names, e.(map[string]any)["name"].(string))
	}

	return names
}

func TestChainGameOverWebsocket(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, validConfig(), newStubDirectory()))
	t.Cleanup(srv.Close)

	player := dialGame(t, srv, "GameAAAA", "player-1")

	info := readMessage(t, player, "session_info")
	assert.Equal(t, true, info["is_player"])
	assert.Equal(t, "GameAAAA", info["game_id"])

	state := readMessage(t, player, "chain_state")
	assert.Equal(t, "awaiting_start", state["state"])

	watcher := dialGame(t, srv, "GameAAAA", "watcher-1")
	assert.Equal(t, false, readMessage(t, watcher, "session_info")["is_player"])

	require.NoError(t, watcher.WriteJSON(ChainClientMessage{Type: "submit", Text: "Tom Hanks"}))
	assert.Contains(t, readMessage(t, watcher, "error")["message"], "watching")

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "start", Kind: "person"}))
	assert.Equal(t, true, readMessage(t, player, "turn_result")["ok"])

	state = readMessage(t, player, "chain_state")
	assert.Equal(t, "awaiting_user_turn", state["state"])
	assert.Equal(t, "person", state["expecting"])

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "submit", Text: "Tom Hanks"}))

	result := readMessage(t, player, "turn_result")
	require.Equal(t, true, result["ok"], "%v", result)
	assert.Equal(t, "Tom Hanks", result["user"].(map[string]any)["name"])
	assert.Equal(t, "Forrest Gump", result["auto"].(map[string]any)["name"])

	state = readMessage(t, player, "chain_state")
	assert.Equal(t, []string{"Tom Hanks", "Forrest Gump"}, chainNames(state))
	assert.Equal(t, "person", state["expecting"])
	assert.Equal(t, float64(1), state["auto_turns"])

	watched := readMessage(t, watcher, "chain_state")
	assert.Equal(t, "awaiting_user_turn", watched["state"])
	watched = readMessage(t, watcher, "chain_state")
	assert.Equal(t, []string{"Tom Hanks", "Forrest Gump"}, chainNames(watched))

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "submit", Text: "Marlon Brando"}))

	result = readMessage(t, player, "turn_result")
	assert.Equal(t, false, result["ok"])
	assert.Equal(t, "not_linked", result["code"])
	assert.Equal(t, true, result["player_fault"])

	state = readMessage(t, player, "chain_state")
	assert.Len(t, chainNames(state), 2)

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "suggest", Field: "guess", Text: "Robin Wrigth"}))

	suggestions := readMessage(t, player, "suggestions")
	assert.Equal(t, "guess", suggestions["field"])
	assert.Equal(t, "Robin Wrigth", suggestions["query"])
	require.Len(t, suggestions["items"], 1)
	assert.Equal(t, "Robin Wright", suggestions["items"].([]any)[0].(map[string]any)["name"])

	// Robin Wright's only movie is already on the chain.
	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "submit", Text: "Robin Wright"}))

	result = readMessage(t, player, "turn_result")
	assert.Equal(t, "no_auto_move", result["code"])
	assert.Nil(t, result["player_fault"])

	state = readMessage(t, player, "chain_state")
	assert.Equal(t, "ended", state["state"])
	assert.Contains(t, readMessage(t, player, "game_over")["message"], "You win")

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "start", Kind: "movie"}))
	assert.Equal(t, true, readMessage(t, player, "turn_result")["ok"])

	state = readMessage(t, player, "chain_state")
	assert.Empty(t, state["chain"])
	assert.Equal(t, "movie", state["expecting"])
}

func TestChainGameRejectsBadKind(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, validConfig(), newStubDirectory()))
	t.Cleanup(srv.Close)

	player := dialGame(t, srv, "GameBBBB", "player-1")
	readMessage(t, player, "session_info")

	require.NoError(t, player.WriteJSON(ChainClientMessage{Type: "start", Kind: "song"}))

	result := readMessage(t, player, "turn_result")
	assert.Equal(t, false, result["ok"])
	assert.Equal(t, "invalid_kind", result["code"])
}

func TestGameManagerReap(t *testing.T) {
	cfg := validConfig()
	cfg.sessionTimeout = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gm := newGameManager(ctx, cfg, newStubDirectory(), nil)

	hub := gm.getHub("GameCCCC")
	assert.Same(t, hub, gm.getHub("GameCCCC"))

	assert.Equal(t, 0, gm.reap(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, gm.reap(time.Now().Add(time.Second)))

	select {
	case <-hub.quit:
	case <-time.After(5 * time.Second):
		t.Fatal("reaped hub was never closed")
	}

	assert.NotSame(t, hub, gm.getHub("GameCCCC"))
}

func TestIsGameID(t *testing.T) {
	assert.True(t, isGameID("AbCd1234"))
	assert.False(t, isGameID("AbCd123"))
	assert.False(t, isGameID("AbCd-234"))
	assert.False(t, isGameID(""))
}
