package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"ahorcado/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans group snapshots out to websocket clients. It holds one store
// subscription per group with at least one connected client, so every
// client's local state is replaced by the authoritative snapshot after
// each write, wherever that write happened.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	gameService *GameService
	store       store.GroupStore

	feedMutex sync.Mutex
	feeds     map[string]*groupFeed
}

// groupFeed is the pair of store subscriptions backing one group's
// connected clients.
type groupFeed struct {
	clients       int
	cancelGroup   func()
	cancelPlayers func()
}

type Client struct {
	hub        *Hub
	id         string
	socket     *websocket.Conn
	send       chan []byte
	groupCode  string
	playerID   string
	playerName string
	// retained records whether this client holds a feed reference, so a
	// failed subscription never decrements another client's feed.
	retained bool
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(gameService *GameService, groupStore store.GroupStore) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		gameService: gameService,
		store:       groupStore,
		feeds:       make(map[string]*groupFeed),
	}
}

// moderatorClientID is the websocket identity a moderator connects with,
// distinguishing them from players of the group.
func moderatorClientID(userID uint) string {
	return fmt.Sprintf("moderator:%d", userID)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			client.retained = h.retainFeed(client.groupCode)
			log.Printf("Client %s registered for group %s (player %s: %s) - Total clients: %d",
				client.id, client.groupCode, client.playerID, client.playerName, h.clientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			if client.retained {
				h.releaseFeed(client.groupCode)
			}
			log.Printf("Client %s unregistered from group %s - Total clients: %d",
				client.id, client.groupCode, h.clientCount())
		}
	}
}

// BroadcastToGroup sends one typed message to every client of a group.
func (h *Hub) BroadcastToGroup(groupCode string, messageType string, payload interface{}) {
	message := Message{
		Type:    messageType,
		Payload: payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if strings.EqualFold(client.groupCode, groupCode) {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
}

// GetConnectedPlayers lists the player ids currently connected for a
// group.
func (h *Hub) GetConnectedPlayers(groupCode string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var ids []string
	for client := range h.clients {
		if strings.EqualFold(client.groupCode, groupCode) {
			ids = append(ids, client.playerID)
		}
	}
	return ids
}

func (h *Hub) IsPlayerConnected(groupCode, playerID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if strings.EqualFold(client.groupCode, groupCode) && client.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) RegisterClient(conn *websocket.Conn, groupCode, playerID, playerName string) *Client {
	client := &Client{
		hub:        h,
		id:         uuid.NewString(),
		socket:     conn,
		send:       make(chan []byte, 256),
		groupCode:  NormalizeCode(groupCode),
		playerID:   playerID,
		playerName: playerName,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// retainFeed starts the store subscriptions for a group when its first
// client connects. Reports whether a feed reference was taken; a false
// return means the client must not release on disconnect.
func (h *Hub) retainFeed(groupCode string) bool {
	h.feedMutex.Lock()
	defer h.feedMutex.Unlock()

	feed, ok := h.feeds[groupCode]
	if ok {
		feed.clients++
		return true
	}

	ctx := context.Background()
	groups, cancelGroup, err := h.store.SubscribeGroup(ctx, groupCode)
	if err != nil {
		log.Printf("Failed to subscribe to group %s: %v", groupCode, err)
		return false
	}
	players, cancelPlayers, err := h.store.SubscribePlayers(ctx, groupCode)
	if err != nil {
		log.Printf("Failed to subscribe to players of group %s: %v", groupCode, err)
		cancelGroup()
		return false
	}

	h.feeds[groupCode] = &groupFeed{
		clients:       1,
		cancelGroup:   cancelGroup,
		cancelPlayers: cancelPlayers,
	}

	go func() {
		for snapshot := range groups {
			// Project before fanning out; raw documents carry the answers.
			h.BroadcastToGroup(groupCode, "group_update", h.gameService.ProjectGroup(&snapshot))
		}
	}()
	go func() {
		for list := range players {
			h.BroadcastToGroup(groupCode, "players_update", list)
		}
	}()

	log.Printf("Started snapshot feed for group %s", groupCode)
	return true
}

// releaseFeed drops the subscriptions once the last client of a group
// disconnects.
func (h *Hub) releaseFeed(groupCode string) {
	h.feedMutex.Lock()
	defer h.feedMutex.Unlock()

	feed, ok := h.feeds[groupCode]
	if !ok {
		return
	}
	feed.clients--
	if feed.clients > 0 {
		return
	}

	feed.cancelGroup()
	feed.cancelPlayers()
	delete(h.feeds, groupCode)
	log.Printf("Stopped snapshot feed for group %s", groupCode)
}

// sendGroupSync pushes the current projection to one client, used when a
// client joins late or asks for a refresh.
func (h *Hub) sendGroupSync(client *Client) {
	view, err := h.gameService.GetGroupView(client.groupCode)
	if err != nil {
		log.Printf("Error getting group state for client %s: %v", client.id, err)
		return
	}

	message := Message{Type: "group_sync", Payload: view}
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling group sync message: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer func() {
		c.socket.Close()
	}()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}

		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		response := Message{Type: "pong", Payload: "pong"}
		data, _ := json.Marshal(response)
		c.send <- data

	case "join_group", "player_ready", "request_group_state":
		c.hub.sendGroupSync(c)

	case "leave_group":
		log.Printf("Player %s (%s) left group %s via WebSocket", c.playerID, c.playerName, c.groupCode)

	default:
		log.Printf("Unknown message type %q from player %s in group %s", msg.Type, c.playerID, c.groupCode)
	}
}
