// ABOUTME: Store interface and data types for voicegate persistence
// ABOUTME: Defines User, VoiceAgent, ScheduledCall structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when trying to create a user with an existing email
var ErrEmailExists = errors.New("email already registered")

// ErrDuplicateName is returned when a user already owns an agent with the same name
var ErrDuplicateName = errors.New("agent name already in use for this user")

// ErrDuplicatePhone is returned when the phone number is already assigned to an agent
var ErrDuplicatePhone = errors.New("phone number already in use")

// User represents a registered account that owns voice agents
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// VoiceAgent represents a conversational voice agent. The ID is assigned by the
// remote provider at creation time, so a row never exists before the remote
// agent does.
type VoiceAgent struct {
	ID           string
	UserID       string
	Name         string
	PhoneNumber  *string // optional, globally unique
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// KnowledgeBase holds business knowledge attached to a voice agent.
// Present in the schema for parity with the data model; no operation uses it yet.
type KnowledgeBase struct {
	ID                string
	AgentID           string
	BusinessKnowledge string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScheduledCall statuses
const (
	CallStatusPending    = "pending"
	CallStatusDispatched = "dispatched"
	CallStatusFailed     = "failed"
)

// ScheduledCall represents a deferred outbound call against a voice agent
type ScheduledCall struct {
	ID           string
	UserID       string
	AgentID      string
	Conversation string
	ScheduledAt  time.Time
	Status       string // "pending", "dispatched", "failed"
	CreatedAt    time.Time
}

// Store defines the interface for voicegate persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Voice agents
	CreateAgent(ctx context.Context, agent *VoiceAgent) error
	GetAgentForUser(ctx context.Context, id, userID string) (*VoiceAgent, error)
	ListAgentsByUser(ctx context.Context, userID string) ([]*VoiceAgent, error)
	CountAgentsByName(ctx context.Context, userID, name string) (int, error)
	DeleteAgentForUser(ctx context.Context, id, userID string) error

	// Scheduled outbound calls
	CreateScheduledCall(ctx context.Context, call *ScheduledCall) error
	ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]*ScheduledCall, error)
	MarkCallFailed(ctx context.Context, id string) error
	ListCallsByUser(ctx context.Context, userID string) ([]*ScheduledCall, error)

	// Close releases any resources held by the store
	Close() error
}
