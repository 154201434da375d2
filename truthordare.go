// Truth or Dare
//
// Players are entered on a shared screen, a category and the items the group
// has on hand are picked, and the game hands each player in turn a truth or a
// dare from the loaded catalog. Difficulty rises with the round count; medium
// and hard prompts need the premium unlock.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Every connected screen sees the same roster, turn and prompt
// - Hub goroutine per game serializes all setup, settings and turn changes
// - Content state (loading, ready, failed) pushed to clients as it changes
// - A failed content fetch is retried when a client connects
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/truthordare/content"
	"github.com/Seednode/truthordare/games"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var errContentNotReady = errors.New("content is not loaded yet")

// Messages coming from clients
type ClientMessage struct {
	Type           string   `json:"type"`                       // "add_player", "remove_player", "start", "select", "complete", "reset", "settings", "upgrade"
	Name           string   `json:"name,omitempty"`             // add_player
	Index          *int     `json:"index,omitempty"`            // remove_player
	Category       string   `json:"category,omitempty"`         // start
	Items          []string `json:"items,omitempty"`            // start
	Kind           string   `json:"kind,omitempty"`             // select
	RoundsPerLevel *int     `json:"rounds_per_level,omitempty"` // settings
	Language       *string  `json:"language,omitempty"`         // settings
}

// ContentStateMessage tells clients whether prompts can be drawn yet.
type ContentStateMessage struct {
	Type       string   `json:"type"` // "content_state"
	State      string   `json:"state"`
	Categories []string `json:"categories"`
	Items      []string `json:"items"`
	Error      string   `json:"error,omitempty"`
}

type SetupStateMessage struct {
	Type    string   `json:"type"` // "setup_state"
	Players []string `json:"players"`
	Started bool     `json:"started"`
}

type SettingsStateMessage struct {
	Type           string `json:"type"` // "settings_state"
	RoundsPerLevel int    `json:"rounds_per_level"`
	Language       string `json:"language"`
	Premium        bool   `json:"premium"`
}

// GameStateMessage broadcasts whose turn it is and how far the game has come.
type GameStateMessage struct {
	Type                 string         `json:"type"` // "game_state"
	Active               bool           `json:"active"`
	Players              []string       `json:"players,omitempty"`
	CurrentPlayer        string         `json:"current_player,omitempty"`
	NextPlayer           string         `json:"next_player,omitempty"`
	Round                int            `json:"round,omitempty"`
	Level                string         `json:"level,omitempty"`
	Progress             int            `json:"progress"`
	RoundsUntilNextLevel int            `json:"rounds_until_next_level"`
	Category             string         `json:"category,omitempty"`
	Items                []string       `json:"items,omitempty"`
	Pending              *PromptMessage `json:"pending,omitempty"`
}

type PromptMessage struct {
	Type     string   `json:"type"` // "prompt"
	Player   string   `json:"player"`
	Kind     string   `json:"kind"`
	Level    string   `json:"level"`
	Text     string   `json:"text"`
	Requires []string `json:"requires,omitempty"`
}

// UpgradeRequiredMessage is sent to the client whose draw hit the paywall.
type UpgradeRequiredMessage struct {
	Type    string `json:"type"` // "upgrade_required"
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ErrorMessage is sent only to the client whose request failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	loader  *ContentLoader
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	requests chan clientRequest
	updates  chan struct{}
	quit     chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	setup    games.Setup
	settings games.Settings
	premium  bool
	catalog  *games.Catalog
	session  *games.Session
	rng      *rand.Rand
}

func newHub(gameID string, loader *ContentLoader, roundsPerLevel int) *Hub {
	now := time.Now()

	settings := games.DefaultSettings()
	if err := settings.SetRoundsPerLevel(roundsPerLevel); err != nil {
		logError(fmt.Errorf("game %s keeps %d rounds per level: %w", gameID, settings.RoundsPerLevel, err))
	}

	return &Hub{
		id:         gameID,
		loader:     loader,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan clientRequest),
		updates:    loader.Subscribe(),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		settings:   settings,
		rng:        rand.New(rand.NewSource(newSeed())),
	}
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}

	return int64(binary.LittleEndian.Uint64(b[:]))
}

func (h *Hub) run(ctx context.Context, cfg *Config) {
	defer h.loader.Unsubscribe(h.updates)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			h.sendLocked(c, h.contentStateLocked())
			h.sendLocked(c, h.settingsStateLocked())
			h.sendLocked(c, h.setupStateLocked())
			h.sendLocked(c, h.gameStateLocked())

			state, _, _ := h.loader.Snapshot()
			h.mu.Unlock()

			logf(cfg, "GAMES: Client %s connected to %s", c.playerID, h.id)

			if state == stateFailed {
				h.loader.Retry(ctx)
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handleRequest(cfg, req)

		case <-h.updates:
			h.mu.Lock()
			h.broadcastLocked(h.contentStateLocked())
			h.mu.Unlock()

		case <-h.quit:
			return

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) handleRequest(cfg *Config, req clientRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	var err error

	switch req.msg.Type {
	case "add_player":
		err = h.addPlayerLocked(cfg, req.msg.Name)
	case "remove_player":
		err = h.removePlayerLocked(cfg, req.msg.Index)
	case "start":
		err = h.startLocked(cfg, req.msg.Category, req.msg.Items)
	case "select":
		err = h.selectLocked(cfg, req.client, req.msg.Kind)
	case "complete":
		err = h.completeLocked()
	case "reset":
		h.resetLocked(cfg)
	case "settings":
		err = h.settingsLocked(req.msg.RoundsPerLevel, req.msg.Language)
	case "upgrade":
		h.premium = true
		logf(cfg, "GAMES: Premium unlocked for %s", h.id)
		h.broadcastLocked(h.settingsStateLocked())
	default:
		// ignore unknown types
		return
	}

	if err != nil {
		h.sendLocked(req.client, ErrorMessage{
			Type:    "error",
			Code:    errorCode(err),
			Message: err.Error(),
		})
	}
}

func (h *Hub) addPlayerLocked(cfg *Config, name string) error {
	if h.session != nil {
		return games.ErrSessionActive
	}

	added, err := h.setup.AddPlayer(name)
	if err != nil {
		return err
	}

	logf(cfg, "GAMES: Player %q joined %s", added, h.id)

	h.broadcastLocked(h.setupStateLocked())

	return nil
}

func (h *Hub) removePlayerLocked(cfg *Config, index *int) error {
	if h.session != nil {
		return games.ErrSessionActive
	}
	if index == nil {
		return games.ErrUnknownPlayer
	}

	removed, err := h.setup.RemovePlayer(*index)
	if err != nil {
		return err
	}

	logf(cfg, "GAMES: Player %q removed from %s", removed, h.id)

	h.broadcastLocked(h.setupStateLocked())

	return nil
}

func (h *Hub) startLocked(cfg *Config, category string, items []string) error {
	if h.session != nil {
		return games.ErrSessionActive
	}

	state, catalog, loadErr := h.loader.Snapshot()
	switch state {
	case stateReady:
	case stateFailed:
		return loadErr
	default:
		return errContentNotReady
	}

	session, err := h.setup.Start(catalog, category, items)
	if err != nil {
		return err
	}

	h.catalog = catalog
	h.session = session

	logf(cfg, "GAMES: Started %s with %d players in category %q", h.id, len(session.Players()), category)

	h.broadcastLocked(h.setupStateLocked())
	h.broadcastLocked(h.gameStateLocked())

	return nil
}

func (h *Hub) selectLocked(cfg *Config, c *Client, value string) error {
	if h.session == nil {
		return games.ErrNoActiveSession
	}

	kind, err := games.ParseKind(value)
	if err != nil {
		return err
	}

	player := h.session.CurrentPlayer()

	prompt, access, err := h.session.Draw(h.catalog, kind, h.settings, h.premium, h.rng)
	if err != nil {
		return err
	}

	if access == games.Denied {
		level := h.session.Level(h.settings.RoundsPerLevel)

		h.sendLocked(c, UpgradeRequiredMessage{
			Type:    "upgrade_required",
			Level:   level.String(),
			Message: "Unlock premium to keep playing at " + level.String() + " difficulty.",
		})

		return nil
	}

	logf(cfg, "GAMES: %q drew a %s %s prompt in %s", player, prompt.Level, prompt.Kind, h.id)

	h.broadcastLocked(promptMessage(player, prompt))
	h.broadcastLocked(h.gameStateLocked())

	return nil
}

func (h *Hub) completeLocked() error {
	if h.session == nil {
		return games.ErrNoActiveSession
	}

	if err := h.session.Complete(); err != nil {
		return err
	}

	h.broadcastLocked(h.gameStateLocked())

	return nil
}

// resetLocked ends the game and empties the roster.
func (h *Hub) resetLocked(cfg *Config) {
	h.session = nil
	h.catalog = nil
	h.setup.Reset()

	logf(cfg, "GAMES: Reset %s", h.id)

	h.broadcastLocked(h.setupStateLocked())
	h.broadcastLocked(h.gameStateLocked())
}

// settingsLocked applies every requested change or none of them.
func (h *Hub) settingsLocked(roundsPerLevel *int, lang *string) error {
	next := h.settings

	if roundsPerLevel != nil {
		if err := next.SetRoundsPerLevel(*roundsPerLevel); err != nil {
			return err
		}
	}

	if lang != nil {
		if err := next.SetLanguage(*lang); err != nil {
			return err
		}
	}

	h.settings = next

	h.broadcastLocked(h.settingsStateLocked())
	if h.session != nil {
		h.broadcastLocked(h.gameStateLocked())
	}

	return nil
}

func promptMessage(player string, p games.Prompt) PromptMessage {
	return PromptMessage{
		Type:     "prompt",
		Player:   player,
		Kind:     string(p.Kind),
		Level:    p.Level.String(),
		Text:     p.Text,
		Requires: p.Requires,
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, content.ErrContentFetchFailed):
		return "content_fetch_failed"
	case errors.Is(err, errContentNotReady):
		return "content_not_ready"
	default:
		return games.ErrorCode(err)
	}
}

func (h *Hub) contentStateLocked() ContentStateMessage {
	state, catalog, err := h.loader.Snapshot()

	msg := ContentStateMessage{
		Type:       "content_state",
		State:      string(state),
		Categories: []string{},
		Items:      []string{},
	}

	if catalog != nil {
		msg.Categories = catalog.CategoryNames()
		msg.Items = catalog.Items
	}
	if err != nil {
		msg.Error = err.Error()
	}

	return msg
}

func (h *Hub) setupStateLocked() SetupStateMessage {
	return SetupStateMessage{
		Type:    "setup_state",
		Players: h.setup.Players(),
		Started: h.session != nil,
	}
}

func (h *Hub) settingsStateLocked() SettingsStateMessage {
	return SettingsStateMessage{
		Type:           "settings_state",
		RoundsPerLevel: h.settings.RoundsPerLevel,
		Language:       h.settings.Language.String(),
		Premium:        h.premium,
	}
}

func (h *Hub) gameStateLocked() GameStateMessage {
	if h.session == nil {
		return GameStateMessage{Type: "game_state"}
	}

	s := h.session
	rpl := h.settings.RoundsPerLevel

	msg := GameStateMessage{
		Type:                 "game_state",
		Active:               true,
		Players:              s.Players(),
		CurrentPlayer:        s.CurrentPlayer(),
		NextPlayer:           s.NextPlayer(),
		Round:                s.Round(),
		Level:                s.Level(rpl).String(),
		Progress:             s.Progress(rpl),
		RoundsUntilNextLevel: s.RoundsUntilNextLevel(rpl),
		Category:             s.Category(),
		Items:                s.Items().Names(),
	}

	if p, ok := s.Pending(); ok {
		pending := promptMessage(s.CurrentPlayer(), p)
		msg.Pending = &pending
	}

	return msg
}

// sendLocked queues msg for one client, dropping the client if it has fallen behind.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// closeAll disconnects all clients of this hub and stops its loop (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}

	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "truthordare_id"

// maxMessageSize caps a single client message; larger ones close the connection.
const maxMessageSize = 4096

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id, err := uuid.NewRandom()
	if err != nil {
		log.Println("uuid error:", err)
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id.String()
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	ctx         context.Context
	cfg         *Config
	loader      *ContentLoader
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, cfg *Config, loader *ContentLoader) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		cfg:         cfg,
		loader:      loader,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gameID, gm.loader, gm.cfg.roundsPerLevel)
	gm.hubs[gameID] = hub
	go hub.run(gm.ctx, gm.cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := crand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
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

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			logf(gm.cfg, "GAMES: Reaped idle game %s", id)
			go hub.closeAll()
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(gameID)

		// the upgrade response is written after hijacking, so pass the cookie along
		conn, err := upgrader.Upgrade(w, r, w.Header().Clone())
		if err != nil {
			log.Println("upgrade error:", err)
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

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.requests <- clientRequest{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
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

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

func serveGamePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		data, err := assets.ReadFile("assets/truthordare/index.html")
		if err != nil {
			errs <- err
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Game page (%s) to %s in %s",
			humanize.Bytes(uint64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerTruthOrDare sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerTruthOrDare(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg, errs))
}
