package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/chepyr/project-tracker/internal/authz"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	eventTaskCreated       = "task_created"
	eventTaskUpdated       = "task_updated"
	eventTaskStatusChanged = "task_status_changed"
	eventTaskDeleted       = "task_deleted"
)

// Hub fans task events out to the WebSocket connections subscribed to a
// project.
type Hub struct {
	connections map[uuid.UUID]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewHub() *Hub {
	return &Hub{connections: make(map[uuid.UUID]map[*websocket.Conn]bool)}
}

// Broadcast sends a task event to every subscriber of the project.
// Connections that fail to take the message are dropped.
func (hub *Hub) Broadcast(projectID uuid.UUID, event string, task *models.Task) {
	if hub == nil {
		return
	}
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	conns, exists := hub.connections[projectID]
	if !exists {
		return
	}

	message, err := json.Marshal(map[string]any{
		"event":   event,
		"task_id": task.ID,
		"name":    task.Name,
		"status":  task.Status,
	})
	if err != nil {
		log.Printf("Failed to marshal task event: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(conns, conn)
			conn.Close()
		}
	}
}

func (hub *Hub) subscribe(projectID uuid.UUID, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if hub.connections[projectID] == nil {
		hub.connections[projectID] = make(map[*websocket.Conn]bool)
	}
	hub.connections[projectID][conn] = true
}

func (hub *Hub) unsubscribe(projectID uuid.UUID, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.connections[projectID], conn)
}

// ProjectEvents upgrades the request to a WebSocket delivering the
// project's task events. Members only; the membership check happens
// before the upgrade.
// GET /api/projects/{projectID}/events
func (h *Handler) ProjectEvents(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Adjust for production (e.g., check specific origins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.Hub.subscribe(project.ID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.Hub.unsubscribe(project.ID, conn)
			conn.Close()
			return
		}
		// incoming messages from clients are ignored
	}
}
