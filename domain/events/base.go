package events

import (
	"time"

	"tangent-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Node events

// NodeCreated is raised when a canvas node is created
type NodeCreated struct {
	BaseEvent
	NodeID  valueobjects.NodeID  `json:"node_id"`
	BoardID valueobjects.BoardID `json:"board_id"`
	UserID  string               `json:"user_id"`
	Kind    string               `json:"kind"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, boardID valueobjects.BoardID, userID, kind string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:  nodeID,
		BoardID: boardID,
		UserID:  userID,
		Kind:    kind,
	}
}

// NodeDeleted is raised when a canvas node is deleted, after cascading
// removal of its messages and links
type NodeDeleted struct {
	BaseEvent
	NodeID       valueobjects.NodeID  `json:"node_id"`
	BoardID      valueobjects.BoardID `json:"board_id"`
	LinksRemoved int                  `json:"links_removed"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, boardID valueobjects.BoardID, linksRemoved int, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:       nodeID,
		BoardID:      boardID,
		LinksRemoved: linksRemoved,
	}
}

// BranchCreated is raised when a chat block is forked from a quoted span
type BranchCreated struct {
	BaseEvent
	NodeID        valueobjects.NodeID  `json:"node_id"`
	ParentID      valueobjects.NodeID  `json:"parent_id"`
	BoardID       valueobjects.BoardID `json:"board_id"`
	InheritedSize int                  `json:"inherited_size"`
}

// NewBranchCreated creates a BranchCreated event
func NewBranchCreated(nodeID, parentID valueobjects.NodeID, boardID valueobjects.BoardID, inheritedSize int, timestamp time.Time) BranchCreated {
	return BranchCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "branch.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:        nodeID,
		ParentID:      parentID,
		BoardID:       boardID,
		InheritedSize: inheritedSize,
	}
}

// Link events

// LinkCreated is raised when a context link is committed
type LinkCreated struct {
	BaseEvent
	LinkID   valueobjects.LinkID  `json:"link_id"`
	BoardID  valueobjects.BoardID `json:"board_id"`
	SourceID valueobjects.NodeID  `json:"source_id"`
	TargetID valueobjects.NodeID  `json:"target_id"`
}

// NewLinkCreated creates a LinkCreated event
func NewLinkCreated(linkID valueobjects.LinkID, boardID valueobjects.BoardID, sourceID, targetID valueobjects.NodeID, timestamp time.Time) LinkCreated {
	return LinkCreated{
		BaseEvent: BaseEvent{
			AggregateID: linkID.String(),
			EventType:   "link.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		LinkID:   linkID,
		BoardID:  boardID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// LinkDeleted is raised when a context link is removed
type LinkDeleted struct {
	BaseEvent
	LinkID   valueobjects.LinkID  `json:"link_id"`
	BoardID  valueobjects.BoardID `json:"board_id"`
	SourceID valueobjects.NodeID  `json:"source_id"`
	TargetID valueobjects.NodeID  `json:"target_id"`
}

// NewLinkDeleted creates a LinkDeleted event
func NewLinkDeleted(linkID valueobjects.LinkID, boardID valueobjects.BoardID, sourceID, targetID valueobjects.NodeID, timestamp time.Time) LinkDeleted {
	return LinkDeleted{
		BaseEvent: BaseEvent{
			AggregateID: linkID.String(),
			EventType:   "link.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		LinkID:   linkID,
		BoardID:  boardID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// Message events

// MessageAppended is raised when a conversation turn is written
type MessageAppended struct {
	BaseEvent
	MessageID valueobjects.MessageID `json:"message_id"`
	BlockID   valueobjects.NodeID    `json:"block_id"`
	Role      string                 `json:"role"`
}

// NewMessageAppended creates a MessageAppended event
func NewMessageAppended(messageID valueobjects.MessageID, blockID valueobjects.NodeID, role string, timestamp time.Time) MessageAppended {
	return MessageAppended{
		BaseEvent: BaseEvent{
			AggregateID: blockID.String(),
			EventType:   "message.appended",
			Timestamp:   timestamp,
			Version:     1,
		},
		MessageID: messageID,
		BlockID:   blockID,
		Role:      role,
	}
}

// Board events

// BoardCreated is raised when a workspace is created
type BoardCreated struct {
	BaseEvent
	BoardID valueobjects.BoardID `json:"board_id"`
	UserID  string               `json:"user_id"`
	Name    string               `json:"name"`
}

// NewBoardCreated creates a BoardCreated event
func NewBoardCreated(boardID valueobjects.BoardID, userID, name string, timestamp time.Time) BoardCreated {
	return BoardCreated{
		BaseEvent: BaseEvent{
			AggregateID: boardID.String(),
			EventType:   "board.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID: boardID,
		UserID:  userID,
		Name:    name,
	}
}
