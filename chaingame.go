/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Moviechain Game
//
// The player names a movie or an actor, and the server answers with a link
// from the other side: an actor from that movie, or a movie that actor was in.
// The player must keep linking from the server's answer without repeating a
// name. The server picks less obvious answers the longer the chain gets.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - First connection to a game becomes the player, later ones spectate
// - Players identified by cookie (playerID)
// - Typo-tolerant guesses resolved against TMDB
// - Debounced autocomplete, one lookup in flight per field
// - Directory outages can be retried without losing the chain
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/moviechain/chain"
)

const gameIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Messages coming from clients
type ChainClientMessage struct {
	Type  string `json:"type"`            // "start", "submit", "continue", "suggest"
	Kind  string `json:"kind,omitempty"`  // start / suggest
	Text  string `json:"text,omitempty"`  // submit / suggest
	Field string `json:"field,omitempty"` // suggest
}

// SessionInfoMessage is sent immediately on connect so the client knows
// whether it controls the game or is watching.
type SessionInfoMessage struct {
	Type     string `json:"type"` // "session_info"
	GameID   string `json:"game_id"`
	IsPlayer bool   `json:"is_player"`
}

// ChainStateMessage carries the whole chain after every change.
type ChainStateMessage struct {
	Type      string         `json:"type"` // "chain_state"
	Chain     []chain.Entity `json:"chain"`
	Expecting chain.Kind     `json:"expecting"`
	State     chain.State    `json:"state"`
	Tier      int            `json:"tier"`
	AutoTurns int            `json:"auto_turns"`
}

// TurnResultMessage reports the outcome of a start, submit or continue.
type TurnResultMessage struct {
	Type        string        `json:"type"` // "turn_result"
	OK          bool          `json:"ok"`
	Code        string        `json:"code,omitempty"`
	Message     string        `json:"message,omitempty"`
	PlayerFault bool          `json:"player_fault,omitempty"`
	Input       string        `json:"input,omitempty"`
	User        *chain.Entity `json:"user,omitempty"`
	Auto        *chain.Entity `json:"auto,omitempty"`
}

type SuggestionsMessage struct {
	Type  string         `json:"type"` // "suggestions"
	Field string         `json:"field"`
	Query string         `json:"query"`
	Items []chain.Entity `json:"items"`
}

// SimpleMessage is for generic notifications ("game_over", "error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type turnRequest struct {
	client *Client
	msg    ChainClientMessage
}

type Hub struct {
	id      string
	cfg     *Config
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	turns    chan turnRequest
	quit     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	playerID   string // cookie/playerID allowed to play
	snapshot   ChainStateMessage
	ended      bool

	// engine is only touched by playLoop.
	engine    *chain.Engine
	newEngine func() *chain.Engine
	suggester *chain.Suggester
}

func newHub(ctx context.Context, cfg *Config, gameID string, dir chain.Directory, filter *chain.ContentFilter) *Hub {
	ctx, cancel := context.WithCancel(ctx)

	gameLogf := func(format string, args ...any) {
		logf(cfg, "GAMES: "+gameID+": "+format, args...)
	}

	newEngine := func() *chain.Engine {
		return chain.NewEngine(dir, chain.Options{
			Filter:         filter,
			DifficultyStep: cfg.difficultyStep,
			Logf:           gameLogf,
		})
	}

	now := time.Now()
	h := &Hub{
		id:         gameID,
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		turns:      make(chan turnRequest, 8),
		quit:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastActive: now,
		newEngine:  newEngine,
		suggester:  chain.NewSuggester(cfg.suggestDelay, chain.NewResolver(dir, filter, gameLogf).Suggest),
	}

	h.engine = newEngine()
	h.snapshot = h.chainStateLocked()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()

			// First connection becomes the player
			if h.playerID == "" {
				h.playerID = c.playerID
			}

			h.clients[c] = true

			h.sendLocked(c, SessionInfoMessage{
				Type:     "session_info",
				GameID:   h.id,
				IsPlayer: h.playerID == c.playerID,
			})
			h.sendLocked(c, h.snapshot)

			logf(h.cfg, "GAMES: %s: Client connected (%d watching)", h.id, len(h.clients))

			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		}
	}
}

// playLoop runs every turn of the game one at a time.
func (h *Hub) playLoop() {
	for {
		select {
		case <-h.quit:
			h.engine.End()

			return

		case req := <-h.turns:
			h.handleTurn(req)
		}
	}
}

func (h *Hub) isPlayer(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return c.playerID == h.playerID
}

func (h *Hub) handleTurn(req turnRequest) {
	if !h.isPlayer(req.client) {
		h.sendTo(req.client, SimpleMessage{
			Type:    "error",
			Message: "You are watching this game. Start your own to play.",
		})

		return
	}

	var result TurnResultMessage

	switch req.msg.Type {
	case "start":
		result = h.start(chain.ParseKind(req.msg.Kind))
	case "submit":
		result = h.submit(req.msg.Text)
	case "continue":
		result = h.resume()
	default:
		return
	}

	h.publish(result)
}

func (h *Hub) start(kind chain.Kind) TurnResultMessage {
	if kind != chain.KindMovie && kind != chain.KindPerson {
		return TurnResultMessage{
			Code:        "invalid_kind",
			Message:     "Choose whether to start with a movie or an actor.",
			PlayerFault: true,
		}
	}

	if h.engine.State() != chain.AwaitingStart {
		h.engine = h.newEngine()
	}

	if err := h.engine.Start(kind); err != nil {
		return turnFailure(err)
	}

	logf(h.cfg, "GAMES: %s: Started with a %s", h.id, kind)

	return TurnResultMessage{OK: true}
}

func (h *Hub) submit(text string) TurnResultMessage {
	turn, err := h.engine.Play(h.ctx, text)

	result := TurnResultMessage{OK: err == nil, Input: text, Auto: turn.Auto}
	if turn.User.Kind != chain.KindUnknown {
		result.User = &turn.User
	}

	if err != nil {
		failure := turnFailure(err)
		result.Code, result.Message, result.PlayerFault = failure.Code, failure.Message, failure.PlayerFault
	}

	return result
}

// resume retries the automated turn after it failed on the directory.
func (h *Hub) resume() TurnResultMessage {
	auto, err := h.engine.AutoTurn(h.ctx)
	if err != nil {
		return turnFailure(err)
	}

	return TurnResultMessage{OK: true, Auto: &auto}
}

func turnFailure(err error) TurnResultMessage {
	return TurnResultMessage{
		Code:        chain.Code(err),
		Message:     chain.Message(err),
		PlayerFault: chain.PlayerFault(err),
	}
}

// publish sends a turn outcome and the resulting chain to everyone watching.
// Outcomes of games that were reaped mid-turn are dropped.
func (h *Hub) publish(result TurnResultMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ended {
		return
	}

	h.lastActive = time.Now()

	result.Type = "turn_result"
	h.snapshot = h.chainStateLocked()

	for c := range h.clients {
		h.sendLocked(c, result)
		h.sendLocked(c, h.snapshot)

		if result.Code == chain.Code(chain.ErrNoAutoMove) {
			h.sendLocked(c, SimpleMessage{
				Type:    "game_over",
				Message: "I'm stumped. You win!",
			})
		}
	}
}

// chainStateLocked reads the engine, so it may only run before playLoop
// starts or from within it.
func (h *Hub) chainStateLocked() ChainStateMessage {
	return ChainStateMessage{
		Type:      "chain_state",
		Chain:     h.engine.Chain(),
		Expecting: h.engine.Expecting(),
		State:     h.engine.State(),
		Tier:      h.engine.Tier(),
		AutoTurns: h.engine.AutoTurns(),
	}
}

func (h *Hub) suggest(c *Client, msg ChainClientMessage) {
	h.mu.Lock()
	if c.playerID != h.playerID {
		h.mu.Unlock()

		return
	}
	h.lastActive = time.Now()

	kind := chain.ParseKind(msg.Kind)
	if kind == chain.KindUnknown {
		kind = h.snapshot.Expecting
	}
	h.mu.Unlock()

	field, query := msg.Field, msg.Text

	h.suggester.Suggest(h.ctx, c.playerID+"/"+field, query, kind, func(items []chain.Entity, err error) {
		if err != nil {
			logf(h.cfg, "GAMES: %s: Suggestions for %q failed: %v", h.id, query, err)

			items = nil
		}

		if items == nil {
			items = []chain.Entity{}
		}

		h.sendTo(c, SuggestionsMessage{
			Type:  "suggestions",
			Field: field,
			Query: query,
			Items: items,
		})
	})
}

func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		h.sendLocked(c, msg)
	}
}

// sendLocked queues msg for c, dropping clients that have stopped reading.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		logf(h.cfg, "GAMES: %s: Dropping slow client", h.id)

		_ = c.conn.Close()
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	// Suggestion deliveries lock the hub, so the suggester is closed first.
	h.suggester.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ended {
		return
	}

	h.ended = true
	h.cancel()
	close(h.quit)

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}

	logf(h.cfg, "GAMES: %s: Closed after %s", h.id, time.Since(h.createdAt).Round(time.Second))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "moviechain_id"

func getOrSetPlayerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     cfg.prefix + "/",
		HttpOnly: true,
		Secure:   cfg.scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	newHub      func(gameID string) *Hub
}

func newGameManager(ctx context.Context, cfg *Config, dir chain.Directory, filter *chain.ContentFilter) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		newHub: func(gameID string) *Hub {
			return newHub(ctx, cfg, gameID, dir, filter)
		},
	}

	go gm.reaperLoop(ctx)

	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := gm.newHub(gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	go hub.playLoop()

	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = gameIDLetters[int(buf[i])%len(gameIDLetters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

func isGameID(id string) bool {
	if len(id) != 8 {
		return false
	}

	for _, r := range id {
		if !strings.ContainsRune(gameIDLetters, r) {
			return false
		}
	}

	return true
}

// reap removes hubs idle since before cutoff and returns how many it closed.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if cutoff.IsZero() || last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout, and every hub once ctx is done.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	var tick <-chan time.Time

	if gm.idleTimeout > 0 {
		ticker := time.NewTicker(gm.idleTimeout / 2)
		defer ticker.Stop()

		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			gm.reap(time.Time{})

			return
		case <-tick:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !isGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(cfg, w, r)

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			errorf("websocket upgrade for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ChainClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start", "submit", "continue":
			select {
			case h.turns <- turnRequest{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		case "suggest":
			h.suggest(c, msg)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !isGameID(ps.ByName("gameid")) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err
		}
	}
}

// ---- Static file paths ----

//go:embed chaingame/index.html
var chainIndexHTML []byte

//go:embed chaingame/app.css
var chainCSS []byte

//go:embed chaingame/app.js
var chainJS []byte

func serveAsset(cfg *Config, contentType string, data []byte, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err := w.Write(data)
		if err != nil {
			errs <- err
		}
	}
}

func serveGamePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !isGameID(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(cfg, w, r)

		_, err := w.Write(chainIndexHTML)
		if err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s for %s", path, gameID, realIP(r))
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerChainGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerChainGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, errs))

	mux.GET(cfg.prefix+"/assets/chain/app.css", serveAsset(cfg, "text/css; charset=utf-8", chainCSS, errs))
	mux.GET(cfg.prefix+"/assets/chain/app.js", serveAsset(cfg, "application/javascript; charset=utf-8", chainJS, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg, errs))
}
