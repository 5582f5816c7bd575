package entities

import (
	"time"

	"tangent-backend/domain/config"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
	pkgerrors "tangent-backend/pkg/errors"
)

// NodeKind discriminates the canvas node variants. Only chat blocks can
// receive incoming context links; image and sticky-note nodes are leaves
// of the context graph by construction.
type NodeKind string

const (
	KindChatBlock  NodeKind = "chat_block"
	KindImage      NodeKind = "image"
	KindStickyNote NodeKind = "sticky_note"
)

// Node is a canvas entity: a chat block, an image, or a sticky note.
// The variant-specific state lives behind the kind tag rather than in
// separate types so one link table can reference any node by ID.
type Node struct {
	id       valueobjects.NodeID
	boardID  valueobjects.BoardID
	userID   string
	kind     NodeKind
	position valueobjects.Position

	// Chat block state. Zero-valued for other kinds.
	title            string
	model            string
	parentID         valueobjects.NodeID // branch tree, set once at creation
	inheritedContext valueobjects.ContextList
	hasAttachedImage bool

	// Image / sticky-note payloads
	imageURL string
	noteText string

	createdAt time.Time
	updatedAt time.Time
	version   int

	events []events.DomainEvent
}

// NewChatBlock creates a chat block node
func NewChatBlock(boardID valueobjects.BoardID, userID, title, model string, position valueobjects.Position) (*Node, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if boardID.IsZero() {
		return nil, pkgerrors.NewValidationError("boardID cannot be empty")
	}
	cfg := config.DefaultDomainConfig()
	if len(title) > cfg.MaxTitleLength {
		return nil, pkgerrors.NewValidationError("title exceeds maximum length")
	}

	now := time.Now()
	node := &Node{
		id:               valueobjects.NewNodeID(),
		boardID:          boardID,
		userID:           userID,
		kind:             KindChatBlock,
		position:         position,
		title:            title,
		model:            model,
		inheritedContext: valueobjects.NewContextList(),
		createdAt:        now,
		updatedAt:        now,
		version:          1,
	}

	node.addEvent(events.NewNodeCreated(node.id, boardID, userID, string(KindChatBlock), now))
	return node, nil
}

// NewBranchBlock creates a chat block forked from a parent block. The
// composed inherited context and the single-parent reference are fixed at
// creation and never mutated afterwards.
func NewBranchBlock(
	boardID valueobjects.BoardID,
	userID, title, model string,
	position valueobjects.Position,
	parentID valueobjects.NodeID,
	inherited valueobjects.ContextList,
) (*Node, error) {
	node, err := NewChatBlock(boardID, userID, title, model, position)
	if err != nil {
		return nil, err
	}
	if parentID.IsZero() {
		return nil, pkgerrors.NewValidationError("branch requires a parent block")
	}
	node.parentID = parentID
	node.inheritedContext = inherited
	node.addEvent(events.NewBranchCreated(node.id, parentID, boardID, inherited.Len(), node.createdAt))
	return node, nil
}

// NewImageNode creates an image node
func NewImageNode(boardID valueobjects.BoardID, userID, imageURL string, position valueobjects.Position) (*Node, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if imageURL == "" {
		return nil, pkgerrors.NewValidationError("image URL cannot be empty")
	}

	now := time.Now()
	node := &Node{
		id:        valueobjects.NewNodeID(),
		boardID:   boardID,
		userID:    userID,
		kind:      KindImage,
		position:  position,
		imageURL:  imageURL,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}
	node.addEvent(events.NewNodeCreated(node.id, boardID, userID, string(KindImage), now))
	return node, nil
}

// NewStickyNote creates a sticky-note node
func NewStickyNote(boardID valueobjects.BoardID, userID, text string, position valueobjects.Position) (*Node, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}

	now := time.Now()
	node := &Node{
		id:        valueobjects.NewNodeID(),
		boardID:   boardID,
		userID:    userID,
		kind:      KindStickyNote,
		position:  position,
		noteText:  text,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}
	node.addEvent(events.NewNodeCreated(node.id, boardID, userID, string(KindStickyNote), now))
	return node, nil
}

// ReconstructNode rebuilds a node from repository data with preserved
// timestamps. No events are raised.
func ReconstructNode(
	id valueobjects.NodeID,
	boardID valueobjects.BoardID,
	userID string,
	kind NodeKind,
	position valueobjects.Position,
	title, model string,
	parentID valueobjects.NodeID,
	inherited valueobjects.ContextList,
	hasAttachedImage bool,
	imageURL, noteText string,
	createdAt, updatedAt time.Time,
	version int,
) (*Node, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if kind != KindChatBlock && kind != KindImage && kind != KindStickyNote {
		return nil, pkgerrors.NewValidationError("unknown node kind")
	}

	return &Node{
		id:               id,
		boardID:          boardID,
		userID:           userID,
		kind:             kind,
		position:         position,
		title:            title,
		model:            model,
		parentID:         parentID,
		inheritedContext: inherited,
		hasAttachedImage: hasAttachedImage,
		imageURL:         imageURL,
		noteText:         noteText,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		version:          version,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// BoardID returns the board this node belongs to
func (n *Node) BoardID() valueobjects.BoardID { return n.boardID }

// UserID returns the owner's ID
func (n *Node) UserID() string { return n.userID }

// Kind returns the node variant
func (n *Node) Kind() NodeKind { return n.kind }

// IsChatBlock reports whether the node participates in the chat-block
// subgraph that cycle checking applies to
func (n *Node) IsChatBlock() bool { return n.kind == KindChatBlock }

// Position returns the node's canvas position
func (n *Node) Position() valueobjects.Position { return n.position }

// Title returns the chat block's title
func (n *Node) Title() string { return n.title }

// Model returns the chat block's configured AI model
func (n *Node) Model() string { return n.model }

// ParentID returns the block this one was branched from, if any
func (n *Node) ParentID() valueobjects.NodeID { return n.parentID }

// InheritedContext returns the ordered, deduplicated ancestor message
// identifiers carried forward at branch time
func (n *Node) InheritedContext() valueobjects.ContextList { return n.inheritedContext }

// HasAttachedImage reports the denormalized image-attachment flag. It is
// kept in sync by link mutations and must never substitute for querying
// the link store.
func (n *Node) HasAttachedImage() bool { return n.hasAttachedImage }

// ImageURL returns the image node's URL
func (n *Node) ImageURL() string { return n.imageURL }

// NoteText returns the sticky note's text
func (n *Node) NoteText() string { return n.noteText }

// Version returns the node's version for optimistic locking
func (n *Node) Version() int { return n.version }

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// MoveTo moves the node to a new canvas position
func (n *Node) MoveTo(position valueobjects.Position) {
	if position.Equals(n.position) {
		return
	}
	n.position = position
	n.touch()
}

// SetAttachedImage updates the derived image-attachment flag. Only chat
// blocks carry the flag.
func (n *Node) SetAttachedImage(attached bool) error {
	if n.kind != KindChatBlock {
		return pkgerrors.NewValidationError("only chat blocks carry the image flag")
	}
	if n.hasAttachedImage == attached {
		return nil
	}
	n.hasAttachedImage = attached
	n.touch()
	return nil
}

// Rename updates the chat block's title
func (n *Node) Rename(title string) error {
	if n.kind != KindChatBlock {
		return pkgerrors.NewValidationError("only chat blocks have titles")
	}
	cfg := config.DefaultDomainConfig()
	if len(title) > cfg.MaxTitleLength {
		return pkgerrors.NewValidationError("title exceeds maximum length")
	}
	n.title = title
	n.touch()
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = nil
}

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

func (n *Node) touch() {
	n.updatedAt = time.Now()
	n.version++
}
